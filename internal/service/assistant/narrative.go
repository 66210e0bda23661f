package assistant

import (
	"fmt"
	"strings"

	"github.com/phrazzld/taskflow-api/internal/store"
)

// listedMax bounds how many fetched tasks a narrative enumerates before
// collapsing the rest into "... and N more."; N counts the remainder of
// the fetched rows, not the true total beyond the fetch cap.
const listedMax = 5

// plural returns "s" for any count other than one.
func plural(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}

// isAre returns the verb agreeing with the count.
func isAre(count int) string {
	if count == 1 {
		return "is"
	}
	return "are"
}

func renderIncomplete(tasks []*store.TaskWithUsers) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d incomplete tasks. ", len(tasks))

	if len(tasks) > 0 {
		b.WriteString("Here they are:\n")
		for i, t := range tasks {
			if i == listedMax {
				break
			}
			fmt.Fprintf(&b, "%d. %s (Status: %s, Assignee: %s)\n",
				i+1, t.Task.Title, t.Task.Status, t.Assignee.DisplayName)
		}
		if len(tasks) > listedMax {
			fmt.Fprintf(&b, "... and %d more.", len(tasks)-listedMax)
		}
	}

	return b.String()
}

func renderCountCompleted(count int) string {
	return fmt.Sprintf("You have %d completed task%s.", count, plural(count))
}

func renderDueToday(tasks []*store.TaskWithUsers) string {
	count := len(tasks)

	var b strings.Builder
	fmt.Fprintf(&b, "There %s %d task%s due today.", isAre(count), count, plural(count))

	if count > 0 {
		b.WriteString(" Here they are:\n")
		for i, t := range tasks {
			fmt.Fprintf(&b, "%d. %s (Assignee: %s)\n",
				i+1, t.Task.Title, t.Assignee.DisplayName)
		}
	}

	return b.String()
}

func renderOverdue(tasks []*store.TaskWithUsers) string {
	count := len(tasks)

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d overdue task%s.", count, plural(count))

	if count > 0 {
		b.WriteString(" Here they are:\n")
		for i, t := range tasks {
			fmt.Fprintf(&b, "%d. %s (Deadline: %s, Assignee: %s)\n",
				i+1, t.Task.Title, t.Task.Deadline.UTC().Format("2006-01-02"),
				t.Assignee.DisplayName)
		}
	}

	return b.String()
}

func renderMyTasks(tasks []*store.TaskWithUsers) string {
	count := len(tasks)

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d task%s assigned to you.", count, plural(count))

	if count > 0 {
		b.WriteString(" Here they are:\n")
		for i, t := range tasks {
			if i == listedMax {
				break
			}
			fmt.Fprintf(&b, "%d. %s (Status: %s)\n", i+1, t.Task.Title, t.Task.Status)
		}
		if count > listedMax {
			fmt.Fprintf(&b, "... and %d more.", count-listedMax)
		}
	}

	return b.String()
}

func renderInProgress(tasks []*store.TaskWithUsers) string {
	count := len(tasks)

	var b strings.Builder
	fmt.Fprintf(&b, "There %s %d task%s in progress.", isAre(count), count, plural(count))

	if count > 0 {
		b.WriteString(" Here they are:\n")
		for i, t := range tasks {
			fmt.Fprintf(&b, "%d. %s (Assignee: %s)\n",
				i+1, t.Task.Title, t.Assignee.DisplayName)
		}
	}

	return b.String()
}

func renderAllSummary(counts *store.StatusCounts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d tasks in total:\n", counts.Total)
	fmt.Fprintf(&b, "- To Do: %d\n", counts.Todo)
	fmt.Fprintf(&b, "- In Progress: %d\n", counts.InProgress)
	fmt.Fprintf(&b, "- Done: %d", counts.Done)
	return b.String()
}

// helpNarrative is returned for queries no rule recognizes.
const helpNarrative = "I'm sorry, I couldn't understand your query. Try asking:\n" +
	"- 'Show me all pending tasks'\n" +
	"- 'How many tasks are completed?'\n" +
	"- 'What tasks are due today?'\n" +
	"- 'Show overdue tasks'\n" +
	"- 'Show my tasks'\n" +
	"- 'What tasks are in progress?'"
