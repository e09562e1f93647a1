// Command bot is a minimal websocket actor client. It claims one character
// seat, then answers every VIEW with the scripted baseline policy until the
// server sends RESULT. Useful for soak-testing a server run without a real
// decision loop behind the seats.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"statecraft.ai/internal/actor"
	"statecraft.ai/internal/protocol"
)

func main() {
	var (
		url       = flag.String("url", "ws://127.0.0.1:8080/ws", "server websocket URL")
		character = flag.String("character", "", "character seat to claim (required)")
		name      = flag.String("name", "scripted-bot", "actor name reported in HELLO")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[bot] ", log.LstdFlags|log.Lmsgprefix)
	if *character == "" {
		logger.Fatal("missing -character")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, *url, nil)
	cancel()
	if err != nil {
		logger.Fatalf("dial %s: %v", *url, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Character:       *character,
		ActorName:       *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	policy := actor.NewScripted(*character)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Fatalf("read: %v", err)
		}
		base, err := protocol.DecodeBase(raw)
		if err != nil {
			logger.Printf("bad message: %v", err)
			continue
		}

		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(raw, &w); err != nil {
				logger.Fatalf("bad WELCOME: %v", err)
			}
			logger.Printf("seated as %q (max %d rounds, %ds per decision)", w.Character, w.RunParams.MaxRounds, w.RunParams.DecisionTimeoutS)

		case protocol.TypeView:
			var v protocol.ViewMsg
			if err := json.Unmarshal(raw, &v); err != nil {
				logger.Printf("bad VIEW: %v", err)
				continue
			}
			proposal, err := policy.ProposeAction(ctx, v.View, nil)
			if err != nil {
				proposal = protocol.Pass(*character, v.Round, "policy error")
			}
			act := protocol.ActMsg{
				Type:            protocol.TypeAct,
				ProtocolVersion: protocol.Version,
				Round:           v.Round,
				Character:       *character,
				Proposal:        proposal,
			}
			if err := conn.WriteJSON(act); err != nil {
				logger.Fatalf("send ACT: %v", err)
			}
			logger.Printf("round %d: %s", v.Round, proposal.Kind)

		case protocol.TypeResult:
			var res protocol.ResultMsg
			if err := json.Unmarshal(raw, &res); err != nil {
				logger.Fatalf("bad RESULT: %v", err)
			}
			logger.Printf("run over after %d rounds (%s)", res.Rounds, res.Reason)
			return

		default:
			logger.Printf("ignoring message type %q", base.Type)
		}
	}
}
