package stream

import (
	"errors"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
)

var errPublishTimeout = errors.New("publish timed out")

// Streamer streams RGB data frames to an ledrx device.
type Streamer struct {
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
}

// NewStreamer creates an instance of a Streamer publishing to topic.
func NewStreamer(client mqtt.Client, topic string, qos byte) *Streamer {
	s := new(Streamer)
	s.client = client
	s.topic = topic
	s.qos = qos
	s.timeout = time.Second
	return s
}

// SendFrame sends a frame as binary over MQTT to an ledrx device.
func (s *Streamer) SendFrame(f *Frame) error {
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	token := s.client.Publish(s.topic, s.qos, false, b)
	if !token.WaitTimeout(s.timeout) {
		return errPublishTimeout
	}
	return token.Error()
}
