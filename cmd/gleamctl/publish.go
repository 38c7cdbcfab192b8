package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	cli "github.com/urfave/cli/v2"

	"gleam/internal/client"
	"gleam/internal/nips"
	"gleam/internal/nostr"
)

var postCmd = &cli.Command{
	Name:      "post",
	Usage:     "publish a note, or a reply with --reply-to",
	ArgsUsage: "<text>",
	Description: `Publishes a kind 1 note signed with the key in $GLEAM_NSEC.
Reads the text from stdin when no argument is given.

Example:

    echo 'hello #nostr' | GLEAM_NSEC=nsec1... gleamctl post`,
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "key", Usage: "nsec or hex secret key", EnvVars: []string{"GLEAM_NSEC"}, Required: true},
		&cli.StringFlag{Name: "reply-to", Usage: "note, nevent or hex id to reply to"},
		&cli.StringFlag{Name: "reply-author", Usage: "hex pubkey of the replied-to author, used when the note cannot be fetched"},
	},
	Action: func(ctx *cli.Context) error {
		sk, err := nips.DecodeSecretKey(ctx.String("key"))
		if err != nil {
			return fmt.Errorf("post: --key: %w", err)
		}
		signer, err := nostr.NewKeySigner(sk)
		if err != nil {
			return fmt.Errorf("post: %w", err)
		}

		text := strings.Join(ctx.Args().Slice(), " ")
		if text == "" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("post: read stdin: %w", err)
			}
			text = string(data)
		}

		c, cleanup, err := newClient(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		var res *client.PublishResult
		if parent := ctx.String("reply-to"); parent != "" {
			author := ctx.String("reply-author")
			if ptr, err := nips.Decode(parent); err == nil && ptr.IsEvent() {
				parent = ptr.EventID
				if author == "" {
					author = ptr.Author
				}
			}
			res, err = c.Reply(longctx, signer, parent, author, text)
		} else {
			res, err = c.Post(longctx, signer, text)
		}
		if err != nil {
			return err
		}
		out := map[string]interface{}{
			"id":       res.Event.ID,
			"accepted": res.Accepted,
		}
		if res.Failed != nil {
			out["failed"] = res.Failed.Error()
		}
		return printJSON(ctx.App.Writer, out)
	},
}
