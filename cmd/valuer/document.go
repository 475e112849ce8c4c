package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"SPX-VAL/internal/fields"
	"SPX-VAL/internal/filename"
	"SPX-VAL/internal/preview"
	"SPX-VAL/internal/processor"
	"SPX-VAL/internal/store"

	"github.com/spf13/cobra"
)

var (
	docSets    []string
	docBank    string
	docLogPath string
	docOut     string
	fieldsJSON bool
)

// workingDocument is a .docx opened from disk with its fields edited by
// flags, the same state a session holds for an opened upload.
type workingDocument struct {
	name      string
	data      []byte
	fields    fields.Fields
	originals map[string]string
}

func openWorkingDocument(ctx context.Context, path string) (*workingDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := processor.OpenPackage(data); err != nil {
		return nil, err
	}

	var seq fields.Sequencer
	if docLogPath != "" {
		seq = store.NewSequence(docLogPath, log)
	}

	name := filepath.Base(path)
	fs, updates := fields.NewExtractor(seq, log).Extract(ctx, filename.Parse(name))
	originals := fs.Snapshot()
	for u := range updates {
		if u.Err == nil && u.Value != "" {
			fs.Assign(u.Key, u.Value)
		}
	}

	if docBank != "" {
		fs.Assign(fields.KeyBankCode, docBank)
	}
	for _, kv := range docSets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: expected key=value", kv)
		}
		if err := fs.Set(strings.TrimSpace(key), value); err != nil {
			return nil, fmt.Errorf("--set %s: %w", key, err)
		}
	}

	return &workingDocument{name: name, data: data, fields: fs, originals: originals}, nil
}

func addEditFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&docSets, "set", nil, "Set a field value (key=value), repeatable")
	cmd.Flags().StringVar(&docBank, "bank", "", "Bank code to switch the document to")
	cmd.Flags().StringVar(&docLogPath, "log", "", "Audit log CSV used to regenerate a placeholder file number")
}

func lookupContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

var fieldsCmd = &cobra.Command{
	Use:   "fields [docx]",
	Short: "List the fields extracted for a document and the pending changes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := lookupContext()
		defer cancel()
		doc, err := openWorkingDocument(ctx, args[0])
		if err != nil {
			fatal("Error opening document", err)
		}

		changes := fields.Changes(doc.fields, doc.originals)
		if fieldsJSON {
			printJSON(map[string]interface{}{"fields": doc.fields, "changes": changes})
			return
		}
		for _, f := range doc.fields {
			marker := " "
			if _, ok := changes.Get(f.Key); ok {
				marker = "*"
			}
			if !f.Editable {
				marker += "r"
			} else {
				marker += " "
			}
			fmt.Printf("%s %-16s %s\n", marker, f.Key, f.Value)
		}
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge [docx]",
	Short: "Write the document with field values merged into its text",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := lookupContext()
		defer cancel()
		doc, err := openWorkingDocument(ctx, args[0])
		if err != nil {
			fatal("Error opening document", err)
		}

		res, err := processor.NewDocxProcessor(log).Merge(doc.data, doc.fields.ValueMap(), doc.originals)
		if err != nil {
			fatal("Error merging document", err)
		}

		out := docOut
		if out == "" {
			f := doc.fields
			out = filepath.Join(filepath.Dir(args[0]), filename.Build(
				f.Value(fields.KeyFileNumber),
				f.Value(fields.KeyPropertyType),
				f.Value(fields.KeyLocation),
				f.Value(fields.KeyCustomerName),
				f.Value(fields.KeyBankCode),
			))
		}
		if err := os.WriteFile(out, res.Data, 0o644); err != nil {
			fatal("Error writing document", err)
		}
		fmt.Printf("Wrote %s (%d fields applied: %s)\n", out, len(res.Applied), strings.Join(res.Applied, ", "))
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview [docx]",
	Short: "Render the document as HTML with pending changes highlighted",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := lookupContext()
		defer cancel()
		doc, err := openWorkingDocument(ctx, args[0])
		if err != nil {
			fatal("Error opening document", err)
		}

		changes := fields.Changes(doc.fields, doc.originals)
		result, err := preview.NewPreviewer(preview.NewDocxRenderer(), log).Preview(ctx, doc.name, doc.data, changes, nil)
		if err != nil {
			fatal("Error rendering preview", err)
		}
		page, err := preview.Page(doc.name, result)
		if err != nil {
			fatal("Error rendering preview", err)
		}

		if docOut == "" {
			os.Stdout.Write(page)
			return
		}
		if err := os.WriteFile(docOut, page, 0o644); err != nil {
			fatal("Error writing preview", err)
		}
	},
}

var textCmd = &cobra.Command{
	Use:   "text [docx]",
	Short: "Print the visible text of a document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fatal("Error reading document", err)
		}
		text, err := processor.PlainText(data)
		if err != nil {
			fatal("Error reading document", err)
		}
		fmt.Println(text)
	},
}

var placeholdersCmd = &cobra.Command{
	Use:   "placeholders [docx]",
	Short: "List the {{placeholder}} tokens in a document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fatal("Error reading document", err)
		}
		names, err := processor.ExtractPlaceholders(data)
		if err != nil {
			fatal("Error reading document", err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
	},
}

func init() {
	for _, cmd := range []*cobra.Command{fieldsCmd, mergeCmd, previewCmd} {
		addEditFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
	fieldsCmd.Flags().BoolVar(&fieldsJSON, "json", false, "Output in JSON format")
	mergeCmd.Flags().StringVarP(&docOut, "out", "o", "", "Output path (default: generated name next to the input)")
	previewCmd.Flags().StringVarP(&docOut, "out", "o", "", "Write the HTML page here instead of stdout")

	rootCmd.AddCommand(textCmd, placeholdersCmd)
}
