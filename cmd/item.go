package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	registry "github.com/registra-io/registra/internal/registry/domain"
)

func init() {
	itemCmd.AddCommand(itemCreateCmd)
	itemCmd.AddCommand(itemReviseCmd)
	itemCmd.AddCommand(itemGetCmd)
	itemCmd.AddCommand(itemVersionsCmd)
	itemCmd.AddCommand(itemDeleteCmd)
	itemCmd.AddCommand(itemDiffCmd)
	rootCmd.AddCommand(itemCmd)

	itemCreateCmd.Flags().String("variant", "", "item kind: data_set_definition, data_element, value_domain")
	itemCreateCmd.Flags().String("attrs", "", "attributes as JSON, or @file")
	_ = itemCreateCmd.MarkFlagRequired("variant")
	_ = itemCreateCmd.MarkFlagRequired("attrs")

	itemReviseCmd.Flags().Int("base", 0, "expected base version")
	itemReviseCmd.Flags().String("attrs", "", "attributes as JSON, or @file")
	_ = itemReviseCmd.MarkFlagRequired("base")
	_ = itemReviseCmd.MarkFlagRequired("attrs")

	itemGetCmd.Flags().Int("version", 0, "version number (0 = current)")
	itemGetCmd.Flags().String("as-of", "", "resolve the version current at this RFC 3339 instant")
}

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage registry items",
}

var itemCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new item as a Candidate",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		variant, _ := cmd.Flags().GetString("variant")
		attrs, err := attrsFlag(cmd)
		if err != nil {
			return err
		}

		itemID, number, err := a.registry.CreateItem(
			context.Background(), actor(), registry.Variant(variant), attrs)
		if err != nil {
			return err
		}
		fmt.Printf("created %s version %d\n", itemID, number)
		return nil
	},
}

var itemReviseCmd = &cobra.Command{
	Use:   "revise <item-id>",
	Short: "Append a new version with updated attributes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		base, _ := cmd.Flags().GetInt("base")
		attrs, err := attrsFlag(cmd)
		if err != nil {
			return err
		}

		number, err := a.registry.ReviseItem(context.Background(), actor(), args[0], base, attrs)
		if err != nil {
			return err
		}
		fmt.Printf("revised %s to version %d\n", args[0], number)
		return nil
	},
}

var itemGetCmd = &cobra.Command{
	Use:   "get <item-id>",
	Short: "Show one version of an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sel := registry.SelectCurrent()
		if n, _ := cmd.Flags().GetInt("version"); n > 0 {
			sel = registry.SelectNumber(n)
		} else if at, _ := cmd.Flags().GetString("as-of"); at != "" {
			t, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("parse --as-of: %w", err)
			}
			sel = registry.SelectAsOf(t)
		}

		v, err := a.registry.GetItem(context.Background(), args[0], sel)
		if err != nil {
			return err
		}
		return printVersion(v)
	},
}

var itemVersionsCmd = &cobra.Command{
	Use:   "versions <item-id>",
	Short: "List the full version history of an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		versions, err := a.registry.ListVersions(context.Background(), args[0])
		if err != nil {
			return err
		}
		for _, v := range versions {
			marker := ""
			if rs := v.RequestedStatus(); rs != nil {
				marker = fmt.Sprintf("  (requested: %s)", *rs)
			}
			fmt.Printf("v%d  %-19s %s%s\n", v.Number(), v.Status(), v.CreatedAt().Format(time.RFC3339), marker)
		}
		return nil
	},
}

var itemDeleteCmd = &cobra.Command{
	Use:   "delete <item-id>",
	Short: "Hard-delete an item that never left Candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.registry.DeleteItem(context.Background(), actor(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

var itemDiffCmd = &cobra.Command{
	Use:   "diff <item-id> <version-a> <version-b>",
	Short: "Diff the name and definition between two versions",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var va, vb int
		if _, err := fmt.Sscanf(args[1], "%d", &va); err != nil {
			return fmt.Errorf("parse version %q: %w", args[1], err)
		}
		if _, err := fmt.Sscanf(args[2], "%d", &vb); err != nil {
			return fmt.Errorf("parse version %q: %w", args[2], err)
		}

		diff, err := a.registry.DiffVersions(context.Background(), args[0], va, vb)
		if err != nil {
			return err
		}
		fmt.Print(diff)
		return nil
	},
}

// attrsFlag reads the --attrs flag as inline JSON or, with a leading @, from
// a file.
func attrsFlag(cmd *cobra.Command) (registry.Attributes, error) {
	raw, _ := cmd.Flags().GetString("attrs")
	if strings.HasPrefix(raw, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return registry.Attributes{}, fmt.Errorf("read attrs file: %w", err)
		}
		raw = string(data)
	}

	var attrs registry.Attributes
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return registry.Attributes{}, fmt.Errorf("parse attrs: %w", err)
	}
	return attrs, nil
}

// versionView is the JSON shape `item get` prints.
type versionView struct {
	ItemID          string              `json:"item_id"`
	Variant         string              `json:"variant"`
	Version         int                 `json:"version"`
	Status          string              `json:"status"`
	RequestedStatus string              `json:"requested_status,omitempty"`
	Rationale       string              `json:"rationale,omitempty"`
	Attributes      registry.Attributes `json:"attributes"`
	CreatedAt       time.Time           `json:"created_at"`
}

func printVersion(v *registry.Version) error {
	view := versionView{
		ItemID:     v.ItemID(),
		Variant:    v.Variant().String(),
		Version:    v.Number(),
		Status:     v.Status().String(),
		Rationale:  v.Rationale(),
		Attributes: v.Attributes(),
		CreatedAt:  v.CreatedAt(),
	}
	if rs := v.RequestedStatus(); rs != nil {
		view.RequestedStatus = rs.String()
	}
	out, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
