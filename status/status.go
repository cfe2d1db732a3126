// Package status broadcasts short progress messages to websocket clients.
package status

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	INFO = iota
	ERROR
	PROGRESS
)

var log = logrus.WithField("component", "status")

type Message struct {
	Message  string
	Time     time.Time
	Type     int
	Progress float32
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		unregisterClient(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.WithError(err).Warn("ws write msg error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.WithError(err).Warn("ws write ping error")
				return
			}
		}
	}
}

// NewClient registers conn and replays the last message to it.
func NewClient(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, 32)}
	globalLock.Lock()
	broadcastList[c] = true
	if lastMessage != nil {
		c.send <- lastMessage
	}
	globalLock.Unlock()
	go c.writePump()
}

var (
	globalLock    sync.Mutex
	broadcastList = make(map[*client]bool)
	lastMessage   []byte
)

func unregisterClient(c *client) {
	globalLock.Lock()
	defer globalLock.Unlock()
	delete(broadcastList, c)
}

// Last returns the most recent message, if any.
func Last() (Message, bool) {
	globalLock.Lock()
	defer globalLock.Unlock()
	var m Message
	if lastMessage == nil {
		return m, false
	}
	return m, json.Unmarshal(lastMessage, &m) == nil
}

func broadcast(m *Message) {
	data, err := json.Marshal(m)
	if err != nil {
		log.WithError(err).Error("marshal status")
		return
	}
	globalLock.Lock()
	defer globalLock.Unlock()
	lastMessage = data
	for c := range broadcastList {
		select {
		case c.send <- data:
		default:
			// slow client
		}
	}
}

func Status(msg string, _type int, progress float32) {
	if math.IsNaN(float64(progress)) || math.IsInf(float64(progress), 0) {
		progress = 0
	}
	broadcast(&Message{
		Message:  msg,
		Time:     time.Now(),
		Type:     _type,
		Progress: progress})
}

func Info(format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), INFO, 0.0)
}

func Error(format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), ERROR, 0.0)
}

func Progress(progress float32, format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), PROGRESS, progress)
}
