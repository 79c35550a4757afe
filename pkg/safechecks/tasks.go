package safechecks

import (
	"github.com/safechecks/safechecks/internal/record"
	"github.com/safechecks/safechecks/internal/tasks"
	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/model"
)

func (c *Client) week(weekStart string) string {
	if weekStart == "" {
		return c.tasks.CurrentWeek()
	}
	return weekStart
}

// Tasks returns the department's tasks for weekStart; "" means this week.
func (c *Client) Tasks(weekStart string) ([]tasks.Item, error) {
	if err := c.requireDevice(); err != nil {
		return nil, err
	}
	s, err := c.Settings()
	if err != nil {
		return nil, err
	}
	return c.tasks.Active(s, c.device.Dept, c.week(weekStart))
}

// CompleteTask marks a task of the current week done and pushes a
// task_completion record so other devices see it.
func (c *Client) CompleteTask(taskID, staff string) (model.Record, error) {
	items, err := c.Tasks("")
	if err != nil {
		return model.Record{}, err
	}
	var item *tasks.Item
	for i := range items {
		if items[i].ID == taskID {
			item = &items[i]
			break
		}
	}
	if item == nil {
		return model.Record{}, errclass.ErrNotFound.WithMessagef("task %q is not scheduled this week", taskID)
	}
	if staff, err = c.staffOr(staff); err != nil {
		return model.Record{}, err
	}

	week := c.tasks.CurrentWeek()
	rec, err := c.builder.TaskCompletion(record.TaskCompletionInput{
		Dept:      item.Dept,
		TaskID:    taskID,
		WeekStart: week,
		DoneBy:    staff,
	})
	if err != nil {
		return model.Record{}, err
	}
	if _, err := c.tasks.MarkDone(week, taskID, staff); err != nil {
		return model.Record{}, err
	}
	return rec, c.sync.Submit(rec)
}

// UndoTask reopens a task completed this week on this device.
func (c *Client) UndoTask(taskID string) error {
	return c.tasks.Undo(c.tasks.CurrentWeek(), taskID)
}

// AddTask schedules a one-off task for this week in the device's department.
func (c *Client) AddTask(label string, day model.Weekday, createdBy string) (model.OneOffTask, error) {
	if err := c.requireDevice(); err != nil {
		return model.OneOffTask{}, err
	}
	createdBy, err := c.staffOr(createdBy)
	if err != nil {
		return model.OneOffTask{}, err
	}
	return c.tasks.AddOneOff(label, day, c.device.Dept, c.tasks.CurrentWeek(), createdBy)
}

// RemoveTask deletes a one-off task.
func (c *Client) RemoveTask(id string) error {
	return c.tasks.RemoveOneOff(id)
}

// UndoneTasks lists every department's unfinished tasks this week.
func (c *Client) UndoneTasks() ([]tasks.Item, error) {
	s, err := c.Settings()
	if err != nil {
		return nil, err
	}
	return c.tasks.Undone(s)
}
