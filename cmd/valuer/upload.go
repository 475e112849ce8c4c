package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"SPX-VAL/internal/upload"

	"github.com/spf13/cobra"
)

var (
	uploadServer      string
	uploadSession     string
	uploadProperty    string
	uploadContentType string
	uploadName        string
	uploadRetries     int
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a photo through the API's signed URLs",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fatal("Error reading file", err)
		}

		name := uploadName
		if name == "" {
			name = filepath.Base(args[0])
		}

		httpClient := &http.Client{Timeout: 60 * time.Second}
		client := upload.NewClient(upload.NewRemoteSigner(uploadServer, uploadSession, httpClient), httpClient, log).
			WithRetry(uploadRetries, time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		url, err := client.Upload(ctx, data, upload.SignRequest{
			FileName:    name,
			ContentType: uploadContentType,
			PropertyID:  uploadProperty,
			SessionID:   uploadSession,
		})
		if err != nil {
			fatal("Error uploading file", err)
		}
		fmt.Println(url)
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadServer, "server", "http://localhost:8080", "API base URL")
	uploadCmd.Flags().StringVar(&uploadSession, "session", "", "Session ID returned at login")
	uploadCmd.Flags().StringVar(&uploadProperty, "property", "", "Property (file number) the photo belongs to")
	uploadCmd.Flags().StringVar(&uploadContentType, "content-type", "image/jpeg", "Content type of the file")
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "Object file name (default: the local file name)")
	uploadCmd.Flags().IntVar(&uploadRetries, "retries", 3, "Upload attempts")
	_ = uploadCmd.MarkFlagRequired("session")
	_ = uploadCmd.MarkFlagRequired("property")
}
