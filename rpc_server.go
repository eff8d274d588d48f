package rtevoked

import (
	"fmt"
	"log"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"os/signal"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/viper"
)

// EngineControl is the RPC-callable control surface (A3, §6, §4.8): one
// exported method per setter/lifecycle operation, each taking an args
// pointer and a reply pointer and returning an error, in the conventional
// shape net/rpc requires of a registered receiver.
type EngineControl struct {
	engine *Engine
}

// NewEngineControl wraps engine for RPC registration.
func NewEngineControl(engine *Engine) *EngineControl {
	return &EngineControl{engine: engine}
}

// NumAveragesArgs is the RPC argument type for SetNumAverages.
type NumAveragesArgs struct{ N uint32 }

// SetNumAverages is the RPC-callable form of Engine.SetNumAverages.
func (c *EngineControl) SetNumAverages(args *NumAveragesArgs, reply *bool) error {
	err := c.engine.SetNumAverages(args.N)
	*reply = err == nil
	return err
}

// AverageModeArgs is the RPC argument type for SetAverageMode.
type AverageModeArgs struct{ Mode AverageMode }

// SetAverageMode is the RPC-callable form of Engine.SetAverageMode.
func (c *EngineControl) SetAverageMode(args *AverageModeArgs, reply *bool) error {
	c.engine.SetAverageMode(args.Mode)
	*reply = true
	return nil
}

// StimArgs is the RPC argument type for SetPreStim/SetPostStim.
type StimArgs struct {
	Samples uint32
	Seconds float32
}

// SetPreStim is the RPC-callable form of Engine.SetPreStim.
func (c *EngineControl) SetPreStim(args *StimArgs, reply *bool) error {
	err := c.engine.SetPreStim(args.Samples, args.Seconds)
	*reply = err == nil
	return err
}

// SetPostStim is the RPC-callable form of Engine.SetPostStim.
func (c *EngineControl) SetPostStim(args *StimArgs, reply *bool) error {
	err := c.engine.SetPostStim(args.Samples, args.Seconds)
	*reply = err == nil
	return err
}

// TriggerChannelArgs is the RPC argument type for SetTriggerChannel.
type TriggerChannelArgs struct{ Index int32 }

// SetTriggerChannel is the RPC-callable form of Engine.SetTriggerChannel.
func (c *EngineControl) SetTriggerChannel(args *TriggerChannelArgs, reply *bool) error {
	c.engine.SetTriggerChannel(args.Index)
	*reply = true
	return nil
}

// TriggerThresholdArgs is the RPC argument type for SetTriggerThreshold.
type TriggerThresholdArgs struct{ Threshold float64 }

// SetTriggerThreshold is the RPC-callable form of Engine.SetTriggerThreshold.
func (c *EngineControl) SetTriggerThreshold(args *TriggerThresholdArgs, reply *bool) error {
	c.engine.SetTriggerThreshold(args.Threshold)
	*reply = true
	return nil
}

// BaselineActiveArgs is the RPC argument type for SetBaselineActive.
type BaselineActiveArgs struct{ Enabled bool }

// SetBaselineActive is the RPC-callable form of Engine.SetBaselineActive.
func (c *EngineControl) SetBaselineActive(args *BaselineActiveArgs, reply *bool) error {
	c.engine.SetBaselineActive(args.Enabled)
	*reply = true
	return nil
}

// BaselineBoundArgs is the RPC argument type for SetBaselineFrom/SetBaselineTo.
type BaselineBoundArgs struct {
	Samples      int32
	Milliseconds int32
}

// SetBaselineFrom is the RPC-callable form of Engine.SetBaselineFrom.
func (c *EngineControl) SetBaselineFrom(args *BaselineBoundArgs, reply *bool) error {
	err := c.engine.SetBaselineFrom(args.Samples, args.Milliseconds)
	*reply = err == nil
	return err
}

// SetBaselineTo is the RPC-callable form of Engine.SetBaselineTo.
func (c *EngineControl) SetBaselineTo(args *BaselineBoundArgs, reply *bool) error {
	err := c.engine.SetBaselineTo(args.Samples, args.Milliseconds)
	*reply = err == nil
	return err
}

// Start is the RPC-callable form of Engine.Start.
func (c *EngineControl) Start(dummy *string, reply *bool) error {
	ok, err := c.engine.Start()
	*reply = ok
	return err
}

// Stop is the RPC-callable form of Engine.Stop.
func (c *EngineControl) Stop(dummy *string, reply *bool) error {
	ok, err := c.engine.Stop()
	*reply = ok
	return err
}

// StatusReply is returned by the Status RPC method: everything a client
// dashboard needs to render current engine state in one round trip.
type StatusReply struct {
	State     string
	Requested EngineConfig
	Active    EngineConfig
	Nave      int
}

// Status reports the engine's lifecycle state and configuration.
func (c *EngineControl) Status(dummy *string, reply *StatusReply) error {
	reply.State = c.engine.State()
	reply.Requested = c.engine.RequestedConfig()
	reply.Active = c.engine.ActiveConfig()
	if ev := c.engine.LatestEvoked(); ev != nil {
		reply.Nave = ev.Nave
	}
	log.Printf("rtevoked: Status: %s", spew.Sdump(reply))
	return nil
}

// RunRPCServer sets up and runs a permanent JSON-RPC server exposing
// control: one goroutine accepts connections, each connection is served in
// its own goroutine one request at a time (calls from separate connections
// can run concurrently; EngineControl relies on the locking Engine already
// does internally), and -- if block is true -- the calling
// goroutine blocks until SIGINT, then gracefully stops the engine.
func RunRPCServer(portrpc int, control *EngineControl, block bool) {
	log.Printf("rtevoked: RPC server using config file %s\n", viper.ConfigFileUsed())

	server := rpc.NewServer()
	if err := server.Register(control); err != nil {
		panic(err)
	}
	server.HandleHTTP(rpc.DefaultRPCPath, rpc.DefaultDebugPath)

	go func() {
		port := fmt.Sprintf(":%d", portrpc)
		listener, err := net.Listen("tcp", port)
		if err != nil {
			panic(fmt.Sprint("listen error:", err))
		}
		for {
			conn, err := listener.Accept()
			if err != nil {
				panic("accept error: " + err.Error())
			}
			log.Printf("rtevoked: new RPC connection established\n")
			go func() {
				codec := jsonrpc.NewServerCodec(conn)
				for {
					if err := server.ServeRequest(codec); err != nil {
						log.Printf("rtevoked: RPC connection closed: %v", err)
						break
					}
				}
			}()
		}
	}()

	if block {
		interruptCatcher := make(chan os.Signal, 1)
		signal.Notify(interruptCatcher, os.Interrupt)
		<-interruptCatcher
		dummy := "dummy"
		var okay bool
		control.Stop(&dummy, &okay)
	}
}
