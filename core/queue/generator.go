package queue

import (
	"fmt"
	"math/rand"
)

// Generator produces the next task to enqueue: its type tag, priority,
// and opaque payload. The producer consumes exactly one arrival sequence
// per generated task via the store's Insert.
type Generator func() (taskType string, priority Priority, payload string)

var demoTaskTypes = []string{"email", "notification", "report", "backup"}

// MixedPriorityGenerator returns a generator producing demo tasks with
// random types and priorities across the full high/medium/low range.
// Useful for exercising the queue's ordering behavior end to end.
func MixedPriorityGenerator() Generator {
	return func() (string, Priority, string) {
		taskType := demoTaskTypes[rand.Intn(len(demoTaskTypes))]
		priority := Priority(rand.Intn(3) + 1)
		payload := fmt.Sprintf("%s priority %s task", priority, taskType)
		return taskType, priority, payload
	}
}
