package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comalice/scxmlcore/internal/core"
	"github.com/comalice/scxmlcore/internal/extensibility"
	"github.com/comalice/scxmlcore/internal/primitives"
	"github.com/comalice/scxmlcore/internal/production"
)

func main() {
	mb := primitives.NewMachineBuilder("traffic-light", "red")
	mb.Atomic("red").Transition("TIMER", "green")
	mb.Atomic("green").Transition("TIMER", "yellow")
	mb.Atomic("yellow").Transition("TIMER", "red")
	doc := mb.Build()

	persister, err := production.NewJSONPersister("/tmp")
	if err != nil {
		panic(err)
	}

	publishCh := make(chan production.PublishedEvent, 100)
	publisher := production.NewChannelPublisher(publishCh)
	defer publisher.Close()

	visualizer := &production.DefaultVisualizer{}

	s, err := core.New(&doc, core.WithSessionID("traffic-light-demo"))
	if err != nil {
		panic(err)
	}
	if err := s.Start(); err != nil {
		panic(err)
	}
	defer s.Stop()

	// A TimerEventSource drives the TIMER event into the session on its own
	// schedule, the way a heartbeat or timeout external to the document
	// would; the document's own <send delay> is for events the statechart
	// schedules on itself.
	timerSrc := extensibility.NewTimerEventSource("TIMER", nil, 2*time.Second)
	pumpStop := make(chan struct{})
	extensibility.Pump(s, timerSrc, pumpStop)
	defer func() {
		timerSrc.Stop()
		close(pumpStop)
	}()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	ctx := context.Background()
	cycles := 0
	for {
		select {
		case <-ticker.C:
			before := s.ActiveStates()
			time.Sleep(50 * time.Millisecond) // let the pumped TIMER event's macrostep settle before we observe it
			after := s.ActiveStates()

			fmt.Printf("\n--- Cycle %d ---\n", cycles+1)
			fmt.Println("Current states:", after)
			fmt.Println("DOT:\n" + visualizer.ExportDOT(doc, after))

			meta := production.Metadata{
				SessionID:  s.SessionID(),
				MachineID:  doc.ID,
				Transition: fmt.Sprintf("%v -> %v", before, after),
				Timestamp:  time.Now(),
			}
			if err := publisher.Publish(ctx, primitives.NewEvent("TIMER", nil), meta); err != nil {
				fmt.Printf("publish error: %v\n", err)
			}
			select {
			case pubEvent := <-publishCh:
				fmt.Printf("Published: %s (%s)\n", pubEvent.Metadata.Transition, pubEvent.Event.Name)
			default:
			}

			if err := persister.Save(ctx, s.Snapshot()); err != nil {
				fmt.Printf("persist error: %v\n", err)
			}

			cycles++
			if cycles >= 12 {
				fmt.Println("Demo complete after 12 cycles.")
				return
			}
		case <-sig:
			fmt.Println("\nShutting down gracefully...")
			return
		}
	}
}
