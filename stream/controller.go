package stream

import (
	"encoding/json"
	"log/slog"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/lavatx/control"
	"github.com/matt-g-everett/lavatx/playback"
)

// Controller connects one animation to MQTT: commands arrive on the command
// topic and every frame change is published on the status topic.
type Controller struct {
	client       mqtt.Client
	name         string
	control      playback.Control
	commandTopic string
	statusTopic  string
	logger       *slog.Logger
	unsubscribe  func()
}

// NewController creates an instance of a Controller.
func NewController(client mqtt.Client, name string, ctl playback.Control, commandTopic, statusTopic string, logger *slog.Logger) *Controller {
	c := new(Controller)
	c.client = client
	c.name = name
	c.control = ctl
	c.commandTopic = commandTopic
	c.statusTopic = statusTopic
	c.logger = logger.With("animation", name)
	c.unsubscribe = ctl.Subscribe(c.publishFrame)
	return c
}

// Subscribe listens on the command topic. Call it again after a reconnect.
func (c *Controller) Subscribe() error {
	token := c.client.Subscribe(c.commandTopic, 0, c.handleClientMessages)
	token.Wait()
	return token.Error()
}

// Close stops publishing status and drops the command subscription.
func (c *Controller) Close() {
	c.unsubscribe()
	if c.client.IsConnected() {
		c.client.Unsubscribe(c.commandTopic).Wait()
	}
}

func (c *Controller) handleClientMessages(client mqtt.Client, msg mqtt.Message) {
	c.logger.Debug("command received", "topic", msg.Topic(), "payload", string(msg.Payload()))

	if err := control.Handle(c.control, msg.Payload()); err != nil {
		c.logger.Warn("command rejected", "error", err)
		c.publish(control.ErrorFor(c.name, err))
	}
}

func (c *Controller) publishFrame(frame int) {
	c.publish(control.FrameStatus(c.name, c.control, frame))
}

func (c *Controller) publish(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("encode status", "error", err)
		return
	}
	c.client.Publish(c.statusTopic, 0, false, b)
}
