// Package server implements the key-value server's event loop: a
// single-threaded, non-blocking, edge-triggered epoll loop that accepts
// connections, drives their read/write drains, and dispatches commands
// against a shared store. There are no locks and no goroutines in the hot
// path; the only concurrency is between this loop and the kernel via
// readiness notification.
package server

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/loopkv/loopkv/internal/metrics"
	"github.com/loopkv/loopkv/pkg/store"
)

const (
	listenBacklog = 10
	maxEvents     = 256
)

// Server owns the listener, the epoll instance, the fd-to-connection
// table, and the store. It is the one server context value threaded
// through every handler, replacing the process-wide mutable globals of
// the original design.
type Server struct {
	host           string
	port           int
	maxMessageSize int

	log *logrus.Logger

	listenFD int32
	epollFD  int32
	wakeFD   int32

	conns map[int32]*connection
	store *store.Store

	events []unix.EpollEvent
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithLogger overrides the logger used for connection lifecycle and
// error events. Defaults to logrus.StandardLogger().
func WithLogger(l *logrus.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New constructs a Server bound to host:port with the given maximum
// message size. It does not touch the network until Run is called.
func New(host string, port int, maxMessageSize int, opts ...Option) *Server {
	s := &Server{
		host:           host,
		port:           port,
		maxMessageSize: maxMessageSize,
		log:            logrus.StandardLogger(),
		conns:          make(map[int32]*connection),
		store:          store.New(),
		events:         make([]unix.EpollEvent, maxEvents),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying key-value store, primarily so that metrics
// collection (rehash-move counters) and tests can observe it directly.
func (s *Server) Store() *store.Store {
	return s.store
}

func (s *Server) setupListener() error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return errors.Wrap(err, "create listening socket")
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return errors.Wrap(err, "set SO_REUSEADDR")
	}

	addr := &unix.SockaddrInet4{Port: s.port}
	ip := net4(s.host)
	copy(addr.Addr[:], ip)

	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return errors.Wrapf(err, "bind %s:%d", s.host, s.port)
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		unix.Close(fd)
		return errors.Wrap(err, "listen")
	}

	s.listenFD = int32(fd)
	return nil
}

// net4 resolves host to a 4-byte IPv4 address, defaulting to INADDR_ANY
// for an empty or wildcard host. IPv6 is out of scope.
func net4(host string) []byte {
	if host == "" || host == "0.0.0.0" {
		return []byte{0, 0, 0, 0}
	}
	ip := netParseIPv4(host)
	if ip == nil {
		return []byte{0, 0, 0, 0}
	}
	return ip
}

// Run creates the listener and epoll instance, registers the listener and
// the internal wake fd, and runs the event loop until Stop is called or a
// fatal error occurs. It blocks until shutdown.
func (s *Server) Run() error {
	if err := s.setupListener(); err != nil {
		return err
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		unix.Close(int(s.listenFD))
		return errors.Wrap(err, "epoll_create1")
	}
	s.epollFD = int32(epfd)

	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(int(s.listenFD))
		unix.Close(epfd)
		return errors.Wrap(err, "eventfd")
	}
	s.wakeFD = int32(wakefd)

	if err := s.epollAdd(s.listenFD, unix.EPOLLIN); err != nil {
		return errors.Wrap(err, "register listener with epoll")
	}
	if err := s.epollAdd(s.wakeFD, unix.EPOLLIN); err != nil {
		return errors.Wrap(err, "register wake fd with epoll")
	}

	s.log.WithFields(logrus.Fields{"host": s.host, "port": s.port}).Info("listening")

	for {
		n, err := unix.EpollWait(int(s.epollFD), s.events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			s.log.WithError(err).Error("epoll_wait failed, stopping")
			break
		}

		stop := false
		for i := 0; i < n; i++ {
			ev := s.events[i]
			fd := int32(ev.Fd)

			switch {
			case fd == s.wakeFD:
				stop = true
			case fd == s.listenFD:
				s.acceptLoop()
			default:
				s.handleConnEvent(fd, ev.Events)
			}
		}
		if stop {
			break
		}
	}

	s.shutdown()
	return nil
}

// acceptLoop drains the listener's backlog, registering every accepted
// connection for edge-triggered read-readiness.
func (s *Server) acceptLoop() {
	for {
		fd, sa, err := unix.Accept4(int(s.listenFD), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			s.log.WithError(err).Warn("accept failed")
			return
		}

		remote := formatSockaddr(sa)
		c := newConnection(int32(fd), remote, s.store, s.maxMessageSize)
		s.conns[int32(fd)] = c

		if err := s.epollAdd(int32(fd), unix.EPOLLIN|unix.EPOLLET); err != nil {
			s.log.WithError(err).Warn("failed to register accepted connection")
			c.Close()
			delete(s.conns, int32(fd))
			continue
		}

		metrics.ActiveConnections.Inc()
		s.log.WithField("remote_addr", remote).Debug("connection accepted")
	}
}

// handleConnEvent dispatches one epoll event for a non-listener fd,
// invoking the read and/or write drains per the event's flags and
// re-arming or destroying the connection afterward.
func (s *Server) handleConnEvent(fd int32, events uint32) {
	c, ok := s.conns[fd]
	if !ok {
		return
	}

	if events&(unix.EPOLLERR|unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		s.destroyConn(fd, c)
		return
	}

	destroy := false
	if events&unix.EPOLLIN != 0 {
		destroy = c.OnReadable()
	}
	if !destroy && events&unix.EPOLLOUT != 0 {
		destroy = c.OnWritable()
	}
	if destroy {
		s.destroyConn(fd, c)
		return
	}

	s.rearm(fd, c)
}

// rearm updates the fd's epoll registration to match the connection's
// current read/write needs, per the always-edge-triggered re-arm rule.
func (s *Server) rearm(fd int32, c *connection) {
	mask := uint32(unix.EPOLLIN | unix.EPOLLET)
	if c.WantWrite() {
		mask |= unix.EPOLLOUT
	}
	if err := s.epollMod(fd, mask); err != nil {
		s.log.WithError(err).Warn("failed to re-arm connection")
		s.destroyConn(fd, c)
	}
}

func (s *Server) destroyConn(fd int32, c *connection) {
	unix.EpollCtl(int(s.epollFD), unix.EPOLL_CTL_DEL, int(fd), nil)
	c.flushBeforeClose()
	c.Close()
	delete(s.conns, fd)
	metrics.ActiveConnections.Dec()
	s.log.WithField("remote_addr", c.remoteAddr).Debug("connection closed")
}

// Stop requests a graceful shutdown: it wakes the event loop via the
// internal eventfd so a blocked EpollWait(-1) returns promptly, without
// the racy polled-flag approach of the original design.
func (s *Server) Stop() error {
	one := []byte{1, 0, 0, 0, 0, 0, 0, 0}
	_, err := unix.Write(int(s.wakeFD), one)
	return err
}

func (s *Server) shutdown() {
	for fd, c := range s.conns {
		unix.EpollCtl(int(s.epollFD), unix.EPOLL_CTL_DEL, int(fd), nil)
		c.Close()
		delete(s.conns, fd)
	}
	metrics.ActiveConnections.Set(0)
	unix.Close(int(s.listenFD))
	unix.Close(int(s.wakeFD))
	unix.Close(int(s.epollFD))
	s.log.Info("server stopped")
}

func (s *Server) epollAdd(fd int32, events uint32) error {
	return unix.EpollCtl(int(s.epollFD), unix.EPOLL_CTL_ADD, int(fd), &unix.EpollEvent{
		Events: events,
		Fd:     fd,
	})
}

func (s *Server) epollMod(fd int32, events uint32) error {
	return unix.EpollCtl(int(s.epollFD), unix.EPOLL_CTL_MOD, int(fd), &unix.EpollEvent{
		Events: events,
		Fd:     fd,
	})
}
