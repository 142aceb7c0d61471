package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	var turnFile string

	dialogCmd := &cobra.Command{
		Use:   "dialog",
		Short: "Post a dialog turn to the service and print the directive",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = os.Stdin
			if turnFile != "" {
				f, err := os.Open(turnFile)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				in = f
			}
			body, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			return postDialogTurn(apiFlag, body, os.Stdout)
		},
	}
	dialogCmd.Flags().StringVarP(&turnFile, "file", "f", "", "File with the turn JSON (default: stdin)")
	rootCmd.AddCommand(dialogCmd)
}

func postDialogTurn(apiURL string, body []byte, out io.Writer) error {
	resp, err := http.Post(apiURL+"/api/dialog", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	_, err = io.Copy(out, resp.Body)
	return err
}
