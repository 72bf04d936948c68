package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Component field helpers for common component names
func Component(name string) Field {
	return String("component", name)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

// Domain field helpers

func PipeID(id string) Field {
	return String("pipe_id", id)
}

func BuildingID(id string) Field {
	return String("building_id", id)
}

func NodeID(id string) Field {
	return String("node_id", id)
}

func Standard(name string) Field {
	return String("standard", name)
}

func FlowKgS(flow float64) Field {
	return Float64("flow_kg_s", flow)
}

func DiameterM(d float64) Field {
	return Float64("diameter_m", d)
}

func VelocityMS(v float64) Field {
	return Float64("velocity_m_s", v)
}

func Iterations(n int) Field {
	return Int("iterations", n)
}
