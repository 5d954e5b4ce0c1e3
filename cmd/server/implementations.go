package main

import (
	"encoding/json"
	"log"
	"sync/atomic"

	"github.com/Ko-stant/tilefeature-engine/internal/protocol"
	"github.com/Ko-stant/tilefeature-engine/internal/ws"
)

// BroadcasterImpl implements Broadcaster using WebSocket hub
type BroadcasterImpl struct {
	hub      *ws.Hub
	sequence SequenceGenerator
}

func NewBroadcaster(hub *ws.Hub, sequence SequenceGenerator) *BroadcasterImpl {
	return &BroadcasterImpl{
		hub:      hub,
		sequence: sequence,
	}
}

func (b *BroadcasterImpl) BroadcastEvent(eventType string, payload interface{}) {
	envelope := protocol.PatchEnvelope{
		Sequence: b.sequence.Next(),
		Type:     eventType,
		Payload:  payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("failed to marshal %s: %v", eventType, err)
		return
	}
	n := b.hub.Broadcast(data)
	log.Printf("broadcast %s #%d to %d clients", eventType, envelope.Sequence, n)
}

// LoggerImpl implements Logger using standard log package
type LoggerImpl struct{}

func NewLogger() *LoggerImpl {
	return &LoggerImpl{}
}

func (l *LoggerImpl) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// SequenceGeneratorImpl implements SequenceGenerator using atomic counter
type SequenceGeneratorImpl struct {
	counter atomic.Uint64
}

func NewSequenceGenerator() *SequenceGeneratorImpl {
	return &SequenceGeneratorImpl{}
}

func (sg *SequenceGeneratorImpl) Next() uint64 {
	return sg.counter.Add(1)
}

func (sg *SequenceGeneratorImpl) Current() uint64 {
	return sg.counter.Load()
}
