package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/francescaartes/task-management-system/internal/store"
)

// parseDeadline accepts either a canonical deadline string or natural
// language ("tomorrow 5pm", "next friday") and returns the canonical
// zero-padded form the store requires.
func parseDeadline(input string) (string, error) {
	if store.ValidDeadline(input) {
		return input, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(input, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to parse deadline %q: %w", input, err)
	}
	if r == nil {
		return "", fmt.Errorf("cannot understand deadline %q (use YYYY-MM-DD or YYYY-MM-DD HH:MM)", input)
	}
	return r.Time.Format(store.DeadlineDateTime), nil
}

// taskDataFromFlags builds the store payload shared by add and update.
func taskDataFromFlags(cmd *cobra.Command) (store.TaskData, error) {
	var data store.TaskData
	data.Title, _ = cmd.Flags().GetString("title")
	data.Category, _ = cmd.Flags().GetString("category")
	data.Status, _ = cmd.Flags().GetString("status")
	data.Description, _ = cmd.Flags().GetString("description")
	data.Tags, _ = cmd.Flags().GetString("tags")

	due, _ := cmd.Flags().GetString("due")
	if due != "" {
		deadline, err := parseDeadline(due)
		if err != nil {
			return data, err
		}
		data.Deadline = deadline
	}
	return data, nil
}

func addTaskFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("title", "t", "", "task title")
	cmd.Flags().StringP("category", "c", "", "task category")
	cmd.Flags().StringP("status", "s", store.StatusToDo, "task status (To Do, In Progress, Done)")
	cmd.Flags().StringP("due", "d", "", "deadline (YYYY-MM-DD, YYYY-MM-DD HH:MM, or natural language)")
	cmd.Flags().String("description", "", "task description")
	cmd.Flags().String("tags", "", "comma-separated tags")
}

func parseTaskID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(os.Stderr, "Error: invalid task id %q\n", arg)
		os.Exit(1)
	}
	return id
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a task",
	Run: func(cmd *cobra.Command, args []string) {
		if err := requireUser(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		data, err := taskDataFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		if err := st.AddTask(userID, data); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		setupLogger(cfg).Info("task added", "user", userID, "title", data.Title)
		fmt.Printf("Task %q added.\n", data.Title)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Overwrite a task's fields and tags",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		taskID := parseTaskID(args[0])
		data, err := taskDataFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		if err := st.UpdateTask(taskID, data); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "Error: no such task %d\n", taskID)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Task %d updated.\n", taskID)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Change a task's status",
	Long:  `Change a task's status without touching any other field or its tags.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		taskID := parseTaskID(args[0])

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		if err := st.UpdateStatus(taskID, args[1]); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "Error: no such task %d\n", taskID)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Task %d -> %s\n", taskID, args[1])
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <task-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		taskID := parseTaskID(args[0])

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		if err := st.DeleteTask(taskID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "Error: no such task %d\n", taskID)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Task %d deleted.\n", taskID)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, optionally filtered",
	Long: `List your tasks with their tags, ordered by deadline.

Filters combine with AND; every filter is optional:
  --category   exact category match
  --status     exact status match
  --tag        tag name contains this substring
  --timeframe  Overdue, "Due Today", or "Next 7 Days"
  --search     title contains this substring`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := requireUser(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var f store.Filter
		f.Category, _ = cmd.Flags().GetString("category")
		f.Status, _ = cmd.Flags().GetString("status")
		f.Tag, _ = cmd.Flags().GetString("tag")
		f.Timeframe, _ = cmd.Flags().GetString("timeframe")
		f.Search, _ = cmd.Flags().GetString("search")

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		tasks, err := st.GetFilteredTasks(userID, f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		printTasks(tasks)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search tasks by title, category, or description",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := requireUser(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		tasks, err := st.SearchTasks(userID, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		for _, t := range tasks {
			fmt.Printf("%4d  %-10s  %-12s  %-16s  %s\n",
				t.ID, t.Status, t.Category, t.Deadline, t.Title)
		}
	},
}

func printTasks(tasks []*store.TaskWithTags) {
	for _, t := range tasks {
		tags := t.Tags
		if tags != "" {
			tags = "[" + tags + "]"
		}
		fmt.Printf("%4d  %-11s  %-12s  %-16s  %s %s\n",
			t.ID, t.Status, t.Category, t.Deadline, t.Title, tags)
	}
}

func init() {
	addTaskFlags(addCmd)
	addTaskFlags(updateCmd)

	listCmd.Flags().StringP("category", "c", "", "filter by exact category")
	listCmd.Flags().StringP("status", "s", "", "filter by exact status")
	listCmd.Flags().String("tag", "", "filter by tag substring")
	listCmd.Flags().String("timeframe", "", `filter by timeframe (Overdue, "Due Today", "Next 7 Days")`)
	listCmd.Flags().String("search", "", "filter by title substring")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
}
