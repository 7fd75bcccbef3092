package scanner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/renaissanceio/renio/attendee"
	"github.com/renaissanceio/renio/radio"
)

// connect starts reading the identity of a pending attendee.
// At most one attempt is in flight per attendee and none after MaxConnectAttempts failures.
func (s *Scanner) connect(epoch uint64, a *attendee.Attendee) {
	if a.Connecting() || a.Connected() {
		return
	}
	addr := a.Address()
	if failed, _ := s.attempts.Peek(addr); failed >= s.config.MaxConnectAttempts {
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	at := &attempt{cancel: cancel}
	s.inflight[a] = at
	a.SetConnecting(true)
	s.eg.Go(func() error {
		defer cancel()
		conn, value, err := s.readIdentity(ctx, addr)
		ran := s.run(epoch, func() {
			conn = s.onIdentity(ctx, at, a, addr, conn, value, err)
		})
		if !ran {
			connectCancelled.Inc()
		}
		if conn != nil {
			s.closeConn(conn)
		}
		return nil
	})
}

// attempt is a single identity read in flight. A newer attempt for the same
// attendee replaces it in Scanner.inflight.
type attempt struct {
	cancel context.CancelFunc
}

func (s *Scanner) readIdentity(ctx context.Context, addr radio.Address) (radio.Conn, []byte, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, err
	}
	defer s.sem.Release(1)
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	conn, err := s.central.Connect(ctx, addr)
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	value, err := conn.ReadCharacteristic(ctx, s.config.Service, s.config.Characteristic)
	if err != nil {
		s.closeConn(conn)
		return nil, nil, fmt.Errorf("read identity from %s: %w", addr, err)
	}
	return conn, value, nil
}

// onIdentity applies the result of readIdentity. It returns the connection if it should be closed.
func (s *Scanner) onIdentity(
	ctx context.Context,
	at *attempt,
	a *attendee.Attendee,
	addr radio.Address,
	conn radio.Conn,
	value []byte,
	err error,
) radio.Conn {
	// checked before at.cancel, which always leaves ctx done
	cancelled := ctx.Err() != nil
	if s.inflight[a] == at {
		delete(s.inflight, a)
		a.SetConnecting(false)
	}
	at.cancel()
	if cancelled || !s.isLive(a) || a.Address() != addr {
		connectCancelled.Inc()
		return conn
	}
	if err == nil {
		identity := attendee.NormalizeIdentity(string(value))
		if identity == "" || len(identity) > s.config.MaxIdentityLength {
			err = fmt.Errorf("%w: %d bytes from %s", ErrMalformedIdentity, len(value), addr)
			connectMalformed.Inc()
		} else {
			s.attempts.Remove(addr)
			connectSuccess.Inc()
			s.confirm(a, identity, conn)
			return nil
		}
	} else {
		connectFailure.Inc()
	}
	if conn != nil {
		s.closeConn(conn)
	}
	failed, _ := s.attempts.Get(addr)
	failed++
	s.attempts.Add(addr, failed)
	s.fail(ConnectFailure{
		Address: addr,
		Attempt: failed,
		Final:   failed >= s.config.MaxConnectAttempts,
		Err:     err,
	})
	return nil
}

func (s *Scanner) confirm(a *attendee.Attendee, identity string, conn radio.Conn) {
	if existing, ok := s.byIdentity[identity]; ok && existing != a {
		// the identity is already live under an older address
		rssi := a.RSSI()
		addr := a.Address()
		s.discard(a)
		s.move(existing, addr)
		existing.UpdateSignal(rssi)
		// the link follows the attendee to its current address
		if old, ok := s.conns[existing]; ok && old != conn {
			s.closeConn(old)
		}
		s.conns[existing] = conn
		existing.SetConnected(true)
		s.updated.Store(true)
		return
	}
	a.Confirm(identity)
	s.byIdentity[identity] = a
	s.conns[a] = conn
	a.SetConnected(true)
	s.updated.Store(true)
	s.logger.Debug("identity confirmed", zap.Inline(a.Info()))
}

func (s *Scanner) fail(failure ConnectFailure) {
	log := s.logger.Debug
	if failure.Final {
		log = s.logger.Info
	}
	log("failed to read identity",
		zap.Stringer("address", failure.Address),
		zap.Int("attempt", failure.Attempt),
		zap.Bool("final", failure.Final),
		zap.Error(failure.Err),
	)
	select {
	case s.failures <- failure:
	default:
		connectDropped.Inc()
		s.logger.Warn("connect failure notification dropped", zap.Stringer("address", failure.Address))
	}
}

func (s *Scanner) closeConn(conn radio.Conn) {
	if err := conn.Close(); err != nil {
		s.logger.Debug("close connection", zap.Stringer("address", conn.Address()), zap.Error(err))
	}
}
