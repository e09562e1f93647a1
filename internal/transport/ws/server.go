// Package ws lets remote actors play characters over a websocket. Each
// connection claims one character seat with HELLO; per round the server
// pushes a VIEW and waits for the matching ACT. A vacant or slow seat simply
// degrades to a pass at the orchestrator's barrier, so one dead connection
// never stalls the run.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"statecraft.ai/internal/actor"
	"statecraft.ai/internal/protocol"
	"statecraft.ai/internal/sim/scenario"
)

type Server struct {
	scn    *scenario.Scenario
	params protocol.RunParams
	log    *log.Logger

	upgrader websocket.Upgrader

	mu    sync.Mutex
	seats map[string]*seat

	allClaimed chan struct{}
}

type seat struct {
	character string

	writeMu sync.Mutex
	conn    *websocket.Conn

	acts chan protocol.ActMsg
	done chan struct{}
}

func NewServer(scn *scenario.Scenario, params protocol.RunParams, logger *log.Logger) *Server {
	return &Server{
		scn:    scn,
		params: params,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		seats:      make(map[string]*seat),
		allClaimed: make(chan struct{}),
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		st := s.handshake(conn)
		if st == nil {
			return
		}

		// Reader loop: only ACT messages matter after the handshake.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeAct {
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				continue
			}
			if act.ProtocolVersion != protocol.Version {
				continue
			}
			select {
			case st.acts <- act:
			default:
				// Stale proposal backlog; keep only the freshest.
				select {
				case <-st.acts:
				default:
				}
				st.acts <- act
			}
		}

		s.release(st)
	}
}

func (s *Server) handshake(conn *websocket.Conn) *seat {
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}
	character := strings.TrimSpace(hello.Character)

	st, err := s.claim(character, conn)
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()), time.Now().Add(time.Second))
		return nil
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		Character:       character,
		GameContext:     s.scn.Context,
		RunParams:       s.params,
	}
	if err := st.writeJSON(welcome); err != nil {
		s.release(st)
		return nil
	}
	if s.log != nil {
		s.log.Printf("seat %q claimed by %s", character, hello.ActorName)
	}
	return st
}

func (s *Server) claim(character string, conn *websocket.Conn) (*seat, error) {
	known := false
	for _, def := range s.scn.Characters {
		if def.Name == character {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown character %q", character)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.seats[character]; taken {
		return nil, fmt.Errorf("character %q already claimed", character)
	}
	st := &seat{
		character: character,
		conn:      conn,
		acts:      make(chan protocol.ActMsg, 1),
		done:      make(chan struct{}),
	}
	s.seats[character] = st
	if len(s.seats) == len(s.scn.Characters) {
		select {
		case <-s.allClaimed:
		default:
			close(s.allClaimed)
		}
	}
	return st, nil
}

func (s *Server) release(st *seat) {
	s.mu.Lock()
	if s.seats[st.character] == st {
		delete(s.seats, st.character)
	}
	s.mu.Unlock()
	close(st.done)
	if s.log != nil {
		s.log.Printf("seat %q released", st.character)
	}
}

// WaitForSeats blocks until every character seat has been claimed once.
func (s *Server) WaitForSeats(ctx context.Context) error {
	select {
	case <-s.allClaimed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Actor returns the engine-side adapter for one character seat.
func (s *Server) Actor(character string) actor.Actor {
	return actor.Func(func(ctx context.Context, view protocol.StateView, history []string) (protocol.ActionProposal, error) {
		s.mu.Lock()
		st := s.seats[character]
		s.mu.Unlock()
		if st == nil {
			return protocol.ActionProposal{}, fmt.Errorf("seat %q is vacant", character)
		}

		round := view.Round + 1
		summary := ""
		if len(history) > 0 {
			summary = history[len(history)-1]
		}
		msg := protocol.ViewMsg{
			Type:            protocol.TypeView,
			ProtocolVersion: protocol.Version,
			Round:           round,
			Character:       character,
			View:            view,
			Summary:         summary,
		}
		if err := st.writeJSON(msg); err != nil {
			return protocol.ActionProposal{}, fmt.Errorf("seat %q: send view: %w", character, err)
		}

		for {
			select {
			case <-ctx.Done():
				return protocol.ActionProposal{}, ctx.Err()
			case <-st.done:
				return protocol.ActionProposal{}, fmt.Errorf("seat %q disconnected", character)
			case act := <-st.acts:
				if act.Round != round {
					continue // stale answer from an earlier round
				}
				return act.Proposal, nil
			}
		}
	})
}

// BroadcastResult notifies every connected seat that the run ended.
func (s *Server) BroadcastResult(rounds int, reason string) {
	msg := protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		Rounds:          rounds,
		Reason:          reason,
	}
	s.mu.Lock()
	seats := make([]*seat, 0, len(s.seats))
	for _, st := range s.seats {
		seats = append(seats, st)
	}
	s.mu.Unlock()
	for _, st := range seats {
		_ = st.writeJSON(msg)
	}
}

func (st *seat) writeJSON(v any) error {
	st.writeMu.Lock()
	defer st.writeMu.Unlock()
	_ = st.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return st.conn.WriteJSON(v)
}
