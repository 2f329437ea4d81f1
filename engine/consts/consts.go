package consts

import "time"

// Tunable Options
const (
	// For Async Jobs
	// ASYNC_JOB_QUEUE_MAXLEN is the max number of pending jobs per async group
	ASYNC_JOB_QUEUE_MAXLEN = 10000

	// For WebSocket Transport
	// WS_READ_BUFFSIZE is the size of each socket read
	WS_READ_BUFFSIZE = 16384
	// WS_MAX_PAYLOAD is the largest frame payload accepted from a client
	WS_MAX_PAYLOAD = 1024 * 1024
	// WS_WRITE_TIMEOUT bounds a single frame write
	WS_WRITE_TIMEOUT = time.Second * 5
	// CONNECTION_CLOSE_TIMEOUT bounds the delivery of a final message before the socket is forced closed
	CONNECTION_CLOSE_TIMEOUT = time.Second * 2
	// CLIENT_SEND_QUEUE_SIZE is the number of outbound messages buffered per connection
	CLIENT_SEND_QUEUE_SIZE = 256

	// For Simulation
	// SIM_TICK_INTERVAL is the fixed simulation step
	SIM_TICK_INTERVAL = time.Millisecond * 50
	// SIM_INBOUND_QUEUE_SIZE is the max number of client messages waiting for the simulation routine
	SIM_INBOUND_QUEUE_SIZE = 10000
	// SIM_SAVE_INTERVAL is the default period of the dirty profile flush
	SIM_SAVE_INTERVAL = time.Second * 5
	// SIM_TICK_WARN_THRESHOLD is the tick duration that gets reported by opmon
	SIM_TICK_WARN_THRESHOLD = time.Millisecond * 25

	// For Storage
	// STORAGE_RETRY_INTERVAL is the wait before a failed write is retried
	STORAGE_RETRY_INTERVAL = time.Second
	// STORAGE_MAX_RETRIES is the number of attempts for a single write before it is requeued
	STORAGE_MAX_RETRIES = 3
	// STORAGE_SAVE_WARN_THRESHOLD is the save duration that gets reported by opmon
	STORAGE_SAVE_WARN_THRESHOLD = time.Millisecond * 100

	// For Operation Monitor
	// OPMON_DUMP_INTERVAL is the interval to print opmon infos to output
	OPMON_DUMP_INTERVAL = 0
)

// Debug Options
const (
	// DEBUG_PACKETS prints inbound message debug logs
	DEBUG_PACKETS = false
	// DEBUG_SAVE_LOAD prints save & load debug logs
	DEBUG_SAVE_LOAD = false
	// DEBUG_CLIENTS prints client connect & disconnect debug logs
	DEBUG_CLIENTS = false
	// DEBUG_AI prints enemy AI decisions
	DEBUG_AI = false
)

//  System level configurations
const (
	// DEBUG_MODE = true turns on debug mode
	DEBUG_MODE = false
)
