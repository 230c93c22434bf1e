package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskAutomationsRun = "automations.run"

type AutomationsRunPayload struct {
	TriggeredBy string    `json:"triggeredBy"`
	RequestedAt time.Time `json:"requestedAt"`
}

func NewAutomationsRunTask(payload AutomationsRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAutomationsRun, data), nil
}

func ParseAutomationsRunPayload(task *asynq.Task) (AutomationsRunPayload, error) {
	var payload AutomationsRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AutomationsRunPayload{}, err
	}
	return payload, nil
}
