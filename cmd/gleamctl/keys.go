package main

import (
	"fmt"

	cli "github.com/urfave/cli/v2"

	"gleam/internal/nips"
	"gleam/internal/nostr"
)

var keygenCmd = &cli.Command{
	Name:  "keygen",
	Usage: "generate a new key pair",
	Action: func(ctx *cli.Context) error {
		sk, err := nostr.GenerateSecretKey()
		if err != nil {
			return err
		}
		signer, err := nostr.NewKeySigner(sk)
		if err != nil {
			return err
		}
		nsec, err := nips.EncodeSecretKey(sk)
		if err != nil {
			return err
		}
		npub, err := nips.EncodePubkey(signer.PublicKey())
		if err != nil {
			return err
		}
		return printJSON(ctx.App.Writer, map[string]string{
			"pubkey": signer.PublicKey(),
			"npub":   npub,
			"nsec":   nsec,
		})
	},
}

var decodeCmd = &cli.Command{
	Name:      "decode",
	Usage:     "decode a NIP-19 identifier (npub, note, nprofile, nevent, naddr)",
	ArgsUsage: "<identifier>",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return fmt.Errorf("decode: expected one identifier")
		}
		ptr, err := nips.Decode(ctx.Args().First())
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		if ptr.Type == nips.PrefixNsec {
			return fmt.Errorf("decode: refusing to print a secret key")
		}
		return printJSON(ctx.App.Writer, ptr)
	},
}
