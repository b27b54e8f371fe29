// Package browsertest provides a browser launcher double that counts open
// sessions and pages.
package browsertest

import (
	"context"
	"sync"
	"time"

	"github.com/maltedev/supplier-extractor/internal/browser"
)

// TrackingLauncher hands out fake sessions serving HTML and records how many
// sessions and pages are still open.
type TrackingLauncher struct {
	HTML        string
	Title       string
	GotoErr     error
	WaitErr     error
	ContentErr  error
	LaunchErr   error
	PanicOnGoto bool
	GotoDelay   time.Duration

	mu           sync.Mutex
	launched     int
	openSessions int
	openPages    int
	visited      []string
	lastOptions  *browser.Options
}

func (l *TrackingLauncher) Launch(ctx context.Context, opts *browser.Options) (browser.Session, error) {
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launched++
	l.openSessions++
	l.lastOptions = opts
	return &session{l: l}, nil
}

// Launched returns the number of Launch calls that succeeded.
func (l *TrackingLauncher) Launched() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launched
}

// Open returns the number of sessions and pages not yet closed.
func (l *TrackingLauncher) Open() (sessions, pages int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.openSessions, l.openPages
}

// Visited returns every URL passed to Goto.
func (l *TrackingLauncher) Visited() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.visited...)
}

// LastOptions returns the options of the most recent launch.
func (l *TrackingLauncher) LastOptions() *browser.Options {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastOptions
}

type session struct {
	l      *TrackingLauncher
	closed bool
}

func (s *session) NewPage() (browser.Page, error) {
	s.l.mu.Lock()
	defer s.l.mu.Unlock()
	s.l.openPages++
	return &page{l: s.l}, nil
}

func (s *session) Close() error {
	s.l.mu.Lock()
	defer s.l.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.l.openSessions--
	}
	return nil
}

type page struct {
	l      *TrackingLauncher
	closed bool
}

func (p *page) Goto(url string, timeout time.Duration) error {
	p.l.mu.Lock()
	p.l.visited = append(p.l.visited, url)
	p.l.mu.Unlock()

	if p.l.PanicOnGoto {
		panic("navigation crashed")
	}
	if p.l.GotoDelay > 0 {
		if p.l.GotoDelay > timeout {
			time.Sleep(timeout)
			return context.DeadlineExceeded
		}
		time.Sleep(p.l.GotoDelay)
	}
	return p.l.GotoErr
}

func (p *page) WaitFor(selector string, timeout time.Duration) error { return p.l.WaitErr }

func (p *page) Scroll() error { return nil }

func (p *page) Title() (string, error) { return p.l.Title, nil }

func (p *page) Content() (string, error) {
	if p.l.ContentErr != nil {
		return "", p.l.ContentErr
	}
	return p.l.HTML, nil
}

func (p *page) Close() error {
	p.l.mu.Lock()
	defer p.l.mu.Unlock()
	if !p.closed {
		p.closed = true
		p.l.openPages--
	}
	return nil
}
