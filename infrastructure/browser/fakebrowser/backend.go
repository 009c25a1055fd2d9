package fakebrowser

import (
	"errors"
	"sync"
	"time"

	"ui_harness/domain/entities"
	"ui_harness/domain/interfaces"
)

// Backend is a fake interfaces.Backend wrapping a Document
type Backend struct {
	mu       sync.Mutex
	Doc      *Document
	kind     entities.BackendKind
	platform entities.Platform

	CloseErr   error
	ClosePanic bool
	IdleErr    error

	closes    int
	shots     int
	idleWaits int
}

var _ interfaces.Backend = (*Backend)(nil)

// NewBackend creates a backend with a fresh document
func NewBackend(kind entities.BackendKind, platform entities.Platform) *Backend {
	return &Backend{Doc: New(), kind: kind, platform: platform}
}

func (b *Backend) Kind() entities.BackendKind { return b.kind }

func (b *Backend) Platform() entities.Platform { return b.platform }

func (b *Backend) Document() (interfaces.Document, error) {
	if b.Doc.IsClosed() {
		return nil, ErrClosed
	}
	return b.Doc, nil
}

func (b *Backend) Screenshot(fullPage bool) ([]byte, error) {
	b.mu.Lock()
	b.shots++
	b.mu.Unlock()
	return b.Doc.Screenshot(fullPage)
}

func (b *Backend) WaitForNetworkIdle(timeout time.Duration) error {
	b.mu.Lock()
	b.idleWaits++
	err := b.IdleErr
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.Doc.WaitForLoad(interfaces.LoadStateNetworkIdle, timeout)
}

func (b *Backend) Close() error {
	b.mu.Lock()
	b.closes++
	b.mu.Unlock()
	if b.ClosePanic {
		panic("driver process vanished")
	}
	b.Doc.Close()
	return b.CloseErr
}

// Closes returns how many times Close ran
func (b *Backend) Closes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes
}

// Shots returns how many screenshots were requested
func (b *Backend) Shots() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shots
}

// IdleWaits returns how many network-idle waits were requested
func (b *Backend) IdleWaits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.idleWaits
}

// ErrLaunch is a canned launch failure
var ErrLaunch = errors.New("executable doesn't exist")
