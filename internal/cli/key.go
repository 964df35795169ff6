// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-biokey.
//
// go-biokey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-biokey/pkg/biometric"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// generateCmd generates a new signing key pair
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new signing key pair",
	Long: `Generate a new P-256 signing key pair inside the secure store.
With --restricted every signature requires biometric authentication.`,
	Run: func(cmd *cobra.Command, args []string) {
		restricted, _ := cmd.Flags().GetBool("restricted")

		svc, _, err := newService()
		if err != nil {
			handleError(err)
		}
		defer func() { _ = svc.Close() }()

		publicKey, err := svc.Generate(restricted)
		if err != nil {
			handleError(err)
		}

		printVerbose("generated key %s", publicKey)
		printer := NewPrinter(outputFormat, os.Stdout)
		if err := printer.PrintKey(publicKey.StorageID(), restricted); err != nil {
			handleError(err)
		}
	},
}

// signCmd signs a message with a stored key
var signCmd = &cobra.Command{
	Use:   "sign <public-key>",
	Short: "Sign a message with a stored key",
	Long: `Sign a message with the key identified by the given public key.
The message is hashed with SHA-256 and the digest is signed. For a
restricted key the configured authenticator approves the challenge.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		message, _ := cmd.Flags().GetString("message")
		if message == "" {
			handleError(fmt.Errorf("--message is required"))
		}

		publicKey, err := decodePublicKeyArg(args[0])
		if err != nil {
			handleError(err)
		}

		svc, cfg, err := newService()
		if err != nil {
			handleError(err)
		}
		defer func() { _ = svc.Close() }()

		digest := sha256.Sum256([]byte(message))
		signature, err := svc.SignSync(publicKey, digest[:], biometric.PromptInfo{
			Title:       cfg.Prompt.Title,
			Message:     cfg.Prompt.Message,
			CancelLabel: cfg.Prompt.CancelLabel,
		})
		if err != nil {
			handleError(err)
		}

		printer := NewPrinter(outputFormat, os.Stdout)
		if err := printer.PrintSignature(base64.StdEncoding.EncodeToString(signature)); err != nil {
			handleError(err)
		}
	},
}

// verifyCmd verifies a signature
var verifyCmd = &cobra.Command{
	Use:   "verify <public-key>",
	Short: "Verify a signature",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		message, _ := cmd.Flags().GetString("message")
		signatureB64, _ := cmd.Flags().GetString("signature")
		if message == "" || signatureB64 == "" {
			handleError(fmt.Errorf("--message and --signature are required"))
		}

		publicKey, err := decodePublicKeyArg(args[0])
		if err != nil {
			handleError(err)
		}
		signature, err := base64.StdEncoding.DecodeString(signatureB64)
		if err != nil {
			handleError(fmt.Errorf("invalid signature encoding: %w", err))
		}

		svc, _, err := newService()
		if err != nil {
			handleError(err)
		}
		defer func() { _ = svc.Close() }()

		digest := sha256.Sum256([]byte(message))
		valid, err := svc.Verify(publicKey, digest[:], signature)
		if err != nil {
			handleError(err)
		}

		printer := NewPrinter(outputFormat, os.Stdout)
		if err := printer.PrintBool("valid", valid); err != nil {
			handleError(err)
		}
		if !valid {
			os.Exit(1)
		}
	},
}

// hasKeyCmd reports whether a public key maps to a live private key
var hasKeyCmd = &cobra.Command{
	Use:   "haskey <public-key>",
	Short: "Check whether a public key maps to a stored private key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publicKey, err := decodePublicKeyArg(args[0])
		if err != nil {
			handleError(err)
		}

		svc, _, err := newService()
		if err != nil {
			handleError(err)
		}
		defer func() { _ = svc.Close() }()

		printer := NewPrinter(outputFormat, os.Stdout)
		if err := printer.PrintBool("exists", svc.HasKey(publicKey)); err != nil {
			handleError(err)
		}
	},
}

// hardwareBackedCmd reports whether a key is hardware backed
var hardwareBackedCmd = &cobra.Command{
	Use:   "hardware-backed <public-key>",
	Short: "Check whether a key's private material is hardware backed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publicKey, err := decodePublicKeyArg(args[0])
		if err != nil {
			handleError(err)
		}

		svc, _, err := newService()
		if err != nil {
			handleError(err)
		}
		defer func() { _ = svc.Close() }()

		printer := NewPrinter(outputFormat, os.Stdout)
		if err := printer.PrintBool("hardware_backed", svc.IsKeyHardwareBacked(publicKey)); err != nil {
			handleError(err)
		}
	},
}

// infoCmd summarizes a stored key
var infoCmd = &cobra.Command{
	Use:   "info <public-key>",
	Short: "Show existence and hardware backing for a key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publicKey, err := decodePublicKeyArg(args[0])
		if err != nil {
			handleError(err)
		}

		svc, _, err := newService()
		if err != nil {
			handleError(err)
		}
		defer func() { _ = svc.Close() }()

		printer := NewPrinter(outputFormat, os.Stdout)
		if err := printer.PrintInfo(publicKey.StorageID(),
			svc.HasKey(publicKey), svc.IsKeyHardwareBacked(publicKey)); err != nil {
			handleError(err)
		}
	},
}

// decodePublicKeyArg decodes the base64url public key argument printed by
// the generate command.
func decodePublicKeyArg(arg string) (types.PublicKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid public key encoding: %w", err)
	}
	return types.PublicKey(raw), nil
}

func init() {
	generateCmd.Flags().BoolP("restricted", "r", false,
		"require biometric authentication per signature")

	signCmd.Flags().StringP("message", "m", "", "message to sign")
	verifyCmd.Flags().StringP("message", "m", "", "signed message")
	verifyCmd.Flags().StringP("signature", "s", "", "base64 signature to verify")
}
