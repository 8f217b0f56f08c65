package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/rfvision/internal/codec"
)

func newText2BinCmd(o *rootOptions) *cobra.Command {
	var decode bool
	cmd := &cobra.Command{
		Use:   "text2bin TEXT",
		Short: "Encode text as 8-bit binary, or decode with --decode",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := strings.Join(args, " ")
			if decode {
				text, err := codec.BinaryToText(in)
				if err != nil {
					return err
				}
				return o.print(cmd, map[string]string{"binary_data": in, "text": text}, text)
			}
			bits, err := codec.TextToBinary(in)
			if err != nil {
				return err
			}
			mappings, err := codec.CharMappings(in)
			if err != nil {
				return err
			}
			return o.print(cmd, map[string]any{
				"original_text": in,
				"binary_data":   bits,
				"char_mappings": mappings,
				"total_bits":    len(bits),
			}, bits)
		},
	}
	cmd.Flags().BoolVar(&decode, "decode", false, "decode a bit string back to text")
	return cmd
}
