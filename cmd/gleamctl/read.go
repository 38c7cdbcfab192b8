package main

import (
	"fmt"

	cli "github.com/urfave/cli/v2"

	"gleam/internal/client"
	"gleam/internal/nips"
	"gleam/internal/types"
)

// noteOut is the JSON shape printed for each note.
type noteOut struct {
	ID         string `json:"id"`
	Author     string `json:"author"`
	Name       string `json:"name,omitempty"`
	CreatedAt  int64  `json:"created_at"`
	Kind       int    `json:"kind"`
	Content    string `json:"content"`
	RepostedBy string `json:"reposted_by,omitempty"`
	ReplyTo    string `json:"reply_to,omitempty"`
	Replies    int    `json:"replies"`
	Reposts    int    `json:"reposts"`
	Likes      int    `json:"likes"`
}

func toNotes(items []client.Item, profiles map[string]*types.ProfileInfo) []noteOut {
	out := make([]noteOut, 0, len(items))
	for _, item := range items {
		n := noteOut{
			ID:        item.Event.ID,
			Author:    item.Event.PubKey,
			CreatedAt: item.Event.CreatedAt,
			Kind:      item.Event.Kind,
			Content:   item.Event.Content,
			Replies:   len(item.Interactions.Replies),
			Reposts:   len(item.Interactions.Reposts),
			Likes:     len(item.Interactions.Likes),
		}
		if p := profiles[item.Event.PubKey]; p != nil {
			n.Name = p.Name
		}
		if item.RepostedBy != nil {
			n.RepostedBy = item.RepostedBy.PubKey
		}
		if item.ReplyTo != nil {
			n.ReplyTo = item.ReplyTo.ParentID
		}
		out = append(out, n)
	}
	return out
}

var feedCmd = &cli.Command{
	Name:  "feed",
	Usage: "print a feed page",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "kind", Value: "global", Usage: "global, explore, videos, user, hashtag or following"},
		&cli.StringFlag{Name: "arg", Usage: "npub for user/following feeds, tag for hashtag"},
		&cli.Int64Flag{Name: "until", Usage: "cursor from a previous page"},
	},
	Action: func(ctx *cli.Context) error {
		c, cleanup, err := newClient(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		opts := client.FeedOptions{}
		if until := ctx.Int64("until"); until > 0 {
			opts.Until = &until
		}

		var page *client.Page
		switch ctx.String("kind") {
		case "global":
			page, err = c.Global(longctx, opts)
		case "explore":
			page, err = c.Explore(longctx, opts)
		case "videos":
			page, err = c.Videos(longctx, opts)
		case "hashtag":
			page, err = c.Hashtag(longctx, ctx.String("arg"), opts)
		case "user", "following":
			pk, derr := nips.DecodePubkey(ctx.String("arg"))
			if derr != nil {
				return fmt.Errorf("feed: --arg: %w", derr)
			}
			if ctx.String("kind") == "user" {
				page, err = c.UserPosts(longctx, pk, opts)
			} else {
				page, err = c.Following(longctx, pk, opts)
			}
		default:
			return fmt.Errorf("feed: unknown kind %q", ctx.String("kind"))
		}
		if err != nil {
			return err
		}
		return printJSON(ctx.App.Writer, map[string]interface{}{
			"notes":       toNotes(page.Items, page.Profiles),
			"next_cursor": page.NextCursor,
		})
	},
}

var threadCmd = &cli.Command{
	Name:      "thread",
	Usage:     "print a note with its root and direct replies",
	ArgsUsage: "<note|nevent|hex id>",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return fmt.Errorf("thread: expected one event id")
		}
		id := ctx.Args().First()
		if ptr, err := nips.Decode(id); err == nil {
			if !ptr.IsEvent() {
				return fmt.Errorf("thread: %s is not an event", ptr.Type)
			}
			id = ptr.EventID
		}

		c, cleanup, err := newClient(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		view, err := c.Thread(longctx, id, nil, "")
		if err != nil {
			return err
		}
		out := map[string]interface{}{
			"target":      toNotes([]client.Item{view.Target}, view.Profiles)[0],
			"replies":     toNotes(view.Replies, view.Profiles),
			"next_cursor": view.NextCursor,
		}
		if view.Root != nil {
			out["root"] = toNotes([]client.Item{*view.Root}, view.Profiles)[0]
		}
		return printJSON(ctx.App.Writer, out)
	},
}

var profileCmd = &cli.Command{
	Name:      "profile",
	Usage:     "print profile metadata and counters",
	ArgsUsage: "<npub|nprofile|hex pubkey>",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return fmt.Errorf("profile: expected one pubkey")
		}
		pk, err := nips.DecodePubkey(ctx.Args().First())
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}

		c, cleanup, err := newClient(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		profile, err := c.Profile(longctx, pk)
		if err != nil {
			return err
		}
		return printJSON(ctx.App.Writer, map[string]interface{}{
			"pubkey":  pk,
			"profile": profile,
			"stats":   c.Stats(longctx, pk),
		})
	},
}
