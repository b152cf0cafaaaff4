package main

import "time"

const (
	writeWait         = 10 * time.Second
	tickRate          = 30 // ticks per second
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval
)
