package services

import "testing"

func TestStatsSnapshot(t *testing.T) {
	s := NewStats()
	s.IncrementReceived()
	s.IncrementReceived()
	s.IncrementReplied()
	s.IncrementFailed()
	s.IncrementCommands()

	snap := s.Snapshot()
	if got := snap["messages_received"]; got != uint64(2) {
		t.Errorf("messages_received = %v, want 2", got)
	}
	if got := snap["messages_replied"]; got != uint64(1) {
		t.Errorf("messages_replied = %v, want 1", got)
	}
	if got := snap["commands_run"]; got != uint64(1) {
		t.Errorf("commands_run = %v, want 1", got)
	}
	if _, ok := snap["goroutines"]; !ok {
		t.Error("snapshot is missing runtime figures")
	}
	if s.Received() != 2 || s.Failed() != 1 {
		t.Errorf("Received/Failed = %d/%d, want 2/1", s.Received(), s.Failed())
	}
}
