// Package services holds process-wide counters reported by the /service endpoint.
package services

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Stats counts the messages handled since startup.
type Stats struct {
	startTime time.Time

	messagesReceived atomic.Uint64
	messagesReplied  atomic.Uint64
	messagesFailed   atomic.Uint64
	commandsRun      atomic.Uint64
	pluginsRun       atomic.Uint64
	intentsMatched   atomic.Uint64
	chatsCompleted   atomic.Uint64
}

func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

func (s *Stats) IncrementReceived() { s.messagesReceived.Add(1) }
func (s *Stats) IncrementReplied()  { s.messagesReplied.Add(1) }
func (s *Stats) IncrementFailed()   { s.messagesFailed.Add(1) }
func (s *Stats) IncrementCommands() { s.commandsRun.Add(1) }
func (s *Stats) IncrementPlugins()  { s.pluginsRun.Add(1) }
func (s *Stats) IncrementIntents()  { s.intentsMatched.Add(1) }
func (s *Stats) IncrementChats()    { s.chatsCompleted.Add(1) }

// Received returns the number of incoming messages seen.
func (s *Stats) Received() uint64 { return s.messagesReceived.Load() }

// Failed returns the number of messages answered with an error reply.
func (s *Stats) Failed() uint64 { return s.messagesFailed.Load() }

// Snapshot returns the counters together with Go runtime memory figures.
func (s *Stats) Snapshot() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"uptime":            int(time.Since(s.startTime).Seconds()),
		"messages_received": s.messagesReceived.Load(),
		"messages_replied":  s.messagesReplied.Load(),
		"messages_failed":   s.messagesFailed.Load(),
		"commands_run":      s.commandsRun.Load(),
		"plugins_run":       s.pluginsRun.Load(),
		"intents_matched":   s.intentsMatched.Load(),
		"chats_completed":   s.chatsCompleted.Load(),
		"goroutines":        runtime.NumGoroutine(),
		"memory_alloc_mb":   float64(m.Alloc) / 1024 / 1024,
		"memory_sys_mb":     float64(m.Sys) / 1024 / 1024,
		"gc_runs":           m.NumGC,
	}
}
