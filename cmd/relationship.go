package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	registry "github.com/registra-io/registra/internal/registry/domain"
)

func init() {
	relationshipCmd.AddCommand(relationshipAddCmd)
	relationshipCmd.AddCommand(relationshipDetachCmd)
	relationshipCmd.AddCommand(relationshipListCmd)
	rootCmd.AddCommand(relationshipCmd)

	relationshipAddCmd.Flags().String("name", "", "edge name, unique per (source, target)")
	relationshipAddCmd.Flags().String("definition", "", "what the edge means")
	relationshipAddCmd.Flags().String("obligation", "optional", "mandatory, optional, or conditional")
	relationshipAddCmd.Flags().String("condition", "", "condition text for conditional edges")
	relationshipAddCmd.Flags().String("cardinality", "single", "single or multiple")
	_ = relationshipAddCmd.MarkFlagRequired("name")
	_ = relationshipAddCmd.MarkFlagRequired("definition")

	relationshipListCmd.Flags().String("direction", "outgoing", "outgoing or incoming")
}

var relationshipCmd = &cobra.Command{
	Use:     "relationship",
	Aliases: []string{"rel"},
	Short:   "Manage relationship edges",
}

var relationshipAddCmd = &cobra.Command{
	Use:   "add <source-id> <target-id>",
	Short: "Attach a named edge from a data set definition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		name, _ := cmd.Flags().GetString("name")
		definition, _ := cmd.Flags().GetString("definition")
		obligation, _ := cmd.Flags().GetString("obligation")
		condition, _ := cmd.Flags().GetString("condition")
		cardinality, _ := cmd.Flags().GetString("cardinality")

		id, err := a.registry.AddRelationship(context.Background(), actor(), args[0], args[1],
			registry.RelationshipAttributes{
				Name:        name,
				Definition:  definition,
				Obligation:  registry.Obligation(obligation),
				Condition:   condition,
				Cardinality: registry.Cardinality(cardinality),
			})
		if err != nil {
			return err
		}
		fmt.Printf("added relationship %s\n", id)
		return nil
	},
}

var relationshipDetachCmd = &cobra.Command{
	Use:   "detach <relationship-id>",
	Short: "Remove an edge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.registry.DetachRelationship(context.Background(), actor(), args[0]); err != nil {
			return err
		}
		fmt.Printf("detached %s\n", args[0])
		return nil
	},
}

var relationshipListCmd = &cobra.Command{
	Use:   "list <item-id>",
	Short: "List edges touching an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		dir, _ := cmd.Flags().GetString("direction")
		rels, err := a.registry.RelationshipsOf(context.Background(), args[0], registry.Direction(dir))
		if err != nil {
			return err
		}
		for _, rel := range rels {
			attrs, _ := json.Marshal(rel.Attributes())
			fmt.Printf("%s  %s -> %s  %s  %s\n",
				rel.ID(), rel.SourceID(), rel.TargetID(),
				rel.CreatedAt().Format(time.RFC3339), attrs)
		}
		return nil
	},
}
