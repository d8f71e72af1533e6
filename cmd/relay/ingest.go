package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/panjf2000/gnet/v2"

	"github.com/monoview/trace"
	"github.com/monoview/trace/compat"
	"github.com/monoview/trace/queue"
)

// Message kinds carried through the hand-off queue
const (
	kindConnect = iota
	kindLine
	kindDisconnect
	kindStop
)

type linePayload struct {
	remote string
	text   string
}

// ingestServer runs on gnet event loops and never traces ingested data itself
type ingestServer struct {
	gnet.BuiltinEventEngine

	q      *queue.Bounded[queue.Message]
	tracer *trace.Tracer
	eng    gnet.Engine
	booted chan struct{}
}

func newIngestServer(q *queue.Bounded[queue.Message], tr *trace.Tracer) *ingestServer {
	return &ingestServer{
		q:      q,
		tracer: tr,
		booted: make(chan struct{}),
	}
}

// serve runs the event loops until ctx is cancelled
func (s *ingestServer) serve(ctx context.Context, addr string, multicore bool) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- gnet.Run(s, addr,
			gnet.WithMulticore(multicore),
			gnet.WithReusePort(true),
			gnet.WithLogger(compat.NewGnetAdapter(s.tracer, compat.WithFatalHandler(func(msg string) {
				s.tracer.Errorf("gnet fatal: %s", msg)
			}))),
		)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	select {
	case <-s.booted:
		if err := s.eng.Stop(context.Background()); err != nil {
			return fmt.Errorf("failed to stop ingest engine: %w", err)
		}
	case err := <-errCh:
		return err
	}
	return <-errCh
}

func (s *ingestServer) OnBoot(eng gnet.Engine) gnet.Action {
	s.eng = eng
	close(s.booted)
	return gnet.None
}

func (s *ingestServer) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	c.SetContext(&bytes.Buffer{})
	s.q.Push(queue.Message{Kind: kindConnect, Payload: c.RemoteAddr().String()})
	return nil, gnet.None
}

func (s *ingestServer) OnClose(c gnet.Conn, err error) gnet.Action {
	remote := c.RemoteAddr().String()
	if pending, ok := c.Context().(*bytes.Buffer); ok && pending.Len() > 0 {
		s.q.Push(queue.Message{Kind: kindLine, Payload: linePayload{remote: remote, text: pending.String()}})
	}
	s.q.Push(queue.Message{Kind: kindDisconnect, Payload: remote})
	return gnet.None
}

func (s *ingestServer) OnTraffic(c gnet.Conn) gnet.Action {
	data, err := c.Next(-1)
	if err != nil {
		return gnet.Close
	}
	pending, _ := c.Context().(*bytes.Buffer)
	if pending == nil {
		pending = &bytes.Buffer{}
		c.SetContext(pending)
	}

	remote := c.RemoteAddr().String()
	for _, line := range splitLines(pending, data) {
		s.q.Push(queue.Message{Kind: kindLine, Payload: linePayload{remote: remote, text: line}})
	}
	return gnet.None
}

// splitLines returns the complete lines in pending+data and keeps the remainder in pending
func splitLines(pending *bytes.Buffer, data []byte) []string {
	var lines []string
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			pending.Write(data)
			break
		}
		pending.Write(bytes.TrimSuffix(data[:i], []byte{'\r'}))
		lines = append(lines, pending.String())
		pending.Reset()
		data = data[i+1:]
	}
	return lines
}

// consume traces queued messages until a stop message arrives
func consume(q *queue.Bounded[queue.Message], tr *trace.Tracer) {
	for {
		msg := q.Pop()
		switch msg.Kind {
		case kindConnect:
			tr.Infof("connection opened: %v", msg.Payload)
		case kindLine:
			p := msg.Payload.(linePayload)
			tr.Infof("%s: %s", p.remote, p.text)
		case kindDisconnect:
			tr.Infof("connection closed: %v", msg.Payload)
		case kindStop:
			return
		default:
			tr.Warnf("unknown message kind %d", msg.Kind)
		}
	}
}
