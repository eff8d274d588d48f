// Command rtevokedd runs the stimulus-locked averaging engine as a
// standalone daemon: it loads configuration via Viper, wires a simulated
// source into an Engine, exposes the control surface over JSON-RPC, and
// broadcasts evoked results over a ZeroMQ PUB socket.
package main

import (
	"flag"
	"log"

	"github.com/spf13/viper"

	rtevoked "github.com/er06645810/rtevoked"
)

func main() {
	configFile := flag.String("config", "", "path to a config file (YAML/JSON/TOML, read by Viper)")
	nchan := flag.Int("nchan", 8, "number of simulated channels")
	stimChannel := flag.Int("stimchannel", 7, "index of the simulated stim channel")
	rate := flag.Float64("rate", 600.0, "simulated sample rate in Hz")
	blockCols := flag.Int("blockcols", 20, "columns per simulated block")
	pulseEvery := flag.Int("pulseevery", 300, "simulated trigger period in samples")
	flag.Parse()

	if *configFile != "" {
		viper.SetConfigFile(*configFile)
		if err := viper.ReadInConfig(); err != nil {
			log.Printf("rtevoked: could not read config file %s: %v", *configFile, err)
		}
	}

	channels := make([]rtevoked.ChannelInfo, *nchan)
	for i := range channels {
		channels[i] = rtevoked.ChannelInfo{Kind: rtevoked.Ordinary, Name: "EEG"}
	}
	if *stimChannel >= 0 && *stimChannel < *nchan {
		channels[*stimChannel] = rtevoked.ChannelInfo{Kind: rtevoked.Stim, Name: "STI101"}
	}
	meta := rtevoked.NewStaticMetadata(*rate, channels)

	cfg := rtevoked.LoadEngineConfig()
	cfg.TriggerChannel = *stimChannel

	engine, err := rtevoked.NewEngine(meta, cfg)
	if err != nil {
		log.Fatalf("rtevoked: invalid configuration: %v", err)
	}

	publisher := rtevoked.NewEvokedPublisher(rtevoked.EvokedPort())
	defer publisher.Close()
	go func() {
		for ev := range engine.Subscribe() {
			publisher.Publish(ev)
		}
	}()

	src := rtevoked.NewSimulatedSource(*nchan, *rate, *blockCols, *stimChannel, *pulseEvery)
	if _, err := engine.Start(); err != nil {
		log.Fatalf("rtevoked: could not start engine: %v", err)
	}
	if err := rtevoked.RunSource(engine, src); err != nil {
		log.Fatalf("rtevoked: could not start source: %v", err)
	}

	control := rtevoked.NewEngineControl(engine)
	log.Printf("rtevoked: serving control RPC on port %d, evoked PUB on port %d", rtevoked.RPCPort(), rtevoked.EvokedPort())
	rtevoked.RunRPCServer(rtevoked.RPCPort(), control, true)
}
