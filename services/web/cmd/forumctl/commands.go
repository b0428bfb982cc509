package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/forum-platform/internal/platform/natsconn"
	"github.com/example/forum-platform/services/web/internal/interaction"
	"github.com/example/forum-platform/services/web/internal/refresh"
	"github.com/example/forum-platform/services/web/internal/remote"
	"github.com/example/forum-platform/services/web/internal/thread"
)

func (c *cli) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and print an access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("FORUM_PASSWORD")
			}
			if password == "" {
				return errors.New("password required (--password or FORUM_PASSWORD)")
			}
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			sess, err := c.client.Login(ctx, args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "export FORUM_TOKEN=%s\n", sess.AccessToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (c *cli) threadsCmd() *cobra.Command {
	var q remote.ListQuery
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "List threads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			threads, err := c.client.Threads(ctx, q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range threads {
				fmt.Fprintf(out, "%6d  %-40s  +%d -%d  %d comments  by %s\n",
					t.ID, truncate(t.Title, 40), t.LikesCount, t.DislikesCount, t.CommentsCount, t.Author)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&q.Query, "query", "", "text search")
	cmd.Flags().StringVar(&q.Category, "category", "", "only threads in this category")
	cmd.Flags().StringVar(&q.Tag, "tag", "", "only threads with this tag")
	cmd.Flags().StringVar(&q.Sort, "sort", "new", "new, top or active")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "page offset")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <thread-id>",
		Short: "Print a thread with its comment tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			d, err := c.client.Thread(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "#%d %s\nby %s  +%d -%d\n\n%s\n\n", d.Thread.ID, d.Thread.Title, d.Thread.Author,
				d.Thread.LikesCount, d.Thread.DislikesCount, d.Thread.Content)
			renderTree(out, thread.BuildTree(d.Comments))
			return nil
		},
	}
}

func (c *cli) toggleCmd(name string, intent interaction.Intent) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <post-id>",
		Short: "Toggle " + name + " on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			actor, err := c.actor()
			if err != nil {
				return err
			}
			ctx, cancel := c.ctx(cmd)
			defer cancel()

			e := interaction.NewEngine(c.client, nil, nil)
			var st interaction.State
			switch intent {
			case interaction.IntentLike:
				st, err = e.ToggleLike(ctx, id, actor)
			case interaction.IntentDislike:
				st, err = e.ToggleDislike(ctx, id, actor)
			default:
				st, err = e.ToggleSave(ctx, id, actor)
			}
			if errors.Is(err, interaction.ErrUnauthenticated) {
				return errors.New("not signed in: run forumctl login first")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatState(id, st))
			return nil
		},
	}
}

func (c *cli) replyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply <post-id> <text...>",
		Short: "Reply to a thread or comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			rec, err := c.client.CreateComment(ctx, id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created comment %d at depth %d\n", rec.ID, rec.Depth)
			return nil
		},
	}
}

func (c *cli) editCmd() *cobra.Command {
	var title, content, category, tag string
	cmd := &cobra.Command{
		Use:   "edit <post-id>",
		Short: "Edit a thread or comment you wrote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			actor, err := c.actor()
			if err != nil {
				return err
			}
			if actor == "" {
				return errors.New("not signed in: run forumctl login first")
			}
			e := remote.PostEdit{ID: id}
			flags := cmd.Flags()
			for name, dst := range map[string]**string{"title": &e.Title, "content": &e.Content, "category": &e.Category, "tag": &e.Tag} {
				if flags.Changed(name) {
					v, _ := flags.GetString(name)
					*dst = &v
				}
			}
			if e.Title == nil && e.Content == nil && e.Category == nil && e.Tag == nil {
				return errors.New("nothing to change: pass --title, --content, --category or --tag")
			}
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			p, err := c.client.UpdatePost(ctx, e)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated post %d\n", p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title (threads only)")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().StringVar(&category, "category", "", "new category (threads only)")
	cmd.Flags().StringVar(&tag, "tag", "", "new tag (threads only)")
	return cmd
}

func (c *cli) savedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "saved",
		Short: "List saved threads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			posts, err := c.client.SavedThreads(ctx)
			if err != nil {
				return err
			}
			for _, p := range posts {
				fmt.Fprintf(cmd.OutOrStdout(), "%6d  %s\n", p.ID, p.Title)
			}
			return nil
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print a line every time the forum changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nc, err := natsconn.Connect(natsconn.Options{URL: c.natsURL, Name: "forumctl"})
			if err != nil {
				return err
			}
			defer nc.Close()

			bus := refresh.NewBus()
			br := refresh.NewBridge(bus, nc, nil)
			if err := br.Start(); err != nil {
				return err
			}
			defer br.Stop()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "watching for changes, ctrl-c to stop")
			err = bus.Watch(cmd.Context(), func(v uint64) { fmt.Fprintf(out, "changed (version %d)\n", v) })
			if errors.Is(err, cmd.Context().Err()) {
				return nil
			}
			return err
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
