package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	registry "github.com/registra-io/registra/internal/registry/domain"
	workflow "github.com/registra-io/registra/internal/workflow/domain"
)

func init() {
	requestCmd.AddCommand(requestOpenCmd)
	requestCmd.AddCommand(requestReviewCmd)
	requestCmd.AddCommand(requestDecideCmd)
	requestCmd.AddCommand(requestConsultCmd)
	requestCmd.AddCommand(requestOpinionCmd)
	requestCmd.AddCommand(requestWithdrawCmd)
	requestCmd.AddCommand(requestShowCmd)
	requestCmd.AddCommand(requestListCmd)
	rootCmd.AddCommand(requestCmd)

	requestOpenCmd.Flags().String("target", "", "target registration status")
	_ = requestOpenCmd.MarkFlagRequired("target")

	requestDecideCmd.Flags().String("outcome", "", "approved, rejected, or escalated")
	requestDecideCmd.Flags().String("rationale", "", "decision rationale")
	requestDecideCmd.Flags().Bool("committee", false, "decide as the control committee")
	_ = requestDecideCmd.MarkFlagRequired("outcome")

	requestConsultCmd.Flags().StringSlice("commission", nil, "advisory commission to consult (repeatable)")
	_ = requestConsultCmd.MarkFlagRequired("commission")

	requestOpinionCmd.Flags().String("commission", "", "commission the member speaks for")
	requestOpinionCmd.Flags().String("value", "", "favorable, unfavorable, or abstain")
	requestOpinionCmd.Flags().String("comment", "", "free-text comment")
	_ = requestOpinionCmd.MarkFlagRequired("commission")
	_ = requestOpinionCmd.MarkFlagRequired("value")
}

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Manage approval requests",
}

var requestOpenCmd = &cobra.Command{
	Use:   "open <item-id>",
	Short: "Request a registration status transition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		target, _ := cmd.Flags().GetString("target")
		id, err := a.workflow.RequestTransition(
			context.Background(), actor(), args[0], registry.RegistrationStatus(target))
		if err != nil {
			return err
		}
		fmt.Printf("opened request %s\n", id)
		return nil
	},
}

var requestReviewCmd = &cobra.Command{
	Use:   "review <request-id>",
	Short: "Take a request up for registration authority review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.workflow.BeginAuthorityReview(context.Background(), actor(), args[0]); err != nil {
			return err
		}
		fmt.Printf("request %s under authority review\n", args[0])
		return nil
	},
}

var requestDecideCmd = &cobra.Command{
	Use:   "decide <request-id>",
	Short: "Record a binding decision on a request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		outcome, _ := cmd.Flags().GetString("outcome")
		rationale, _ := cmd.Flags().GetString("rationale")
		committee, _ := cmd.Flags().GetBool("committee")

		var state workflow.RequestState
		if committee {
			state, err = a.workflow.RecordCommitteeDecision(
				context.Background(), actor(), args[0], workflow.Outcome(outcome), rationale)
		} else {
			state, err = a.workflow.RecordAuthorityDecision(
				context.Background(), actor(), args[0], workflow.Outcome(outcome), rationale)
		}
		if err != nil {
			return err
		}
		fmt.Printf("request %s is now %s\n", args[0], state)
		return nil
	},
}

var requestConsultCmd = &cobra.Command{
	Use:   "consult <request-id>",
	Short: "Ask advisory commissions for opinions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		commissions, _ := cmd.Flags().GetStringSlice("commission")
		if err := a.workflow.RequestOpinions(context.Background(), actor(), args[0], commissions); err != nil {
			return err
		}
		fmt.Printf("request %s sent to %d commission(s)\n", args[0], len(commissions))
		return nil
	},
}

var requestOpinionCmd = &cobra.Command{
	Use:   "opinion <request-id>",
	Short: "Submit or revise an advisory opinion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		commission, _ := cmd.Flags().GetString("commission")
		value, _ := cmd.Flags().GetString("value")
		comment, _ := cmd.Flags().GetString("comment")

		op, err := a.workflow.SubmitAdvisoryOpinion(
			context.Background(), actor(), args[0], commission,
			workflow.OpinionValue(value), comment)
		if err != nil {
			return err
		}
		fmt.Printf("opinion recorded: %s by %s for %s\n", op.Value, op.MemberID, op.CommissionID)
		return nil
	},
}

var requestWithdrawCmd = &cobra.Command{
	Use:   "withdraw <request-id>",
	Short: "Withdraw a still-early request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.workflow.WithdrawRequest(context.Background(), actor(), args[0]); err != nil {
			return err
		}
		fmt.Printf("request %s withdrawn\n", args[0])
		return nil
	},
}

var requestShowCmd = &cobra.Command{
	Use:   "show <request-id>",
	Short: "Show a request and its opinions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		req, err := a.workflow.GetRequest(context.Background(), args[0])
		if err != nil {
			return err
		}
		printRequest(req)

		opinions, err := a.workflow.OpinionsFor(context.Background(), args[0])
		if err != nil {
			return err
		}
		for _, op := range opinions {
			fmt.Printf("  opinion %-12s %s/%s  %s\n", op.Value, op.CommissionID, op.MemberID, op.Comment)
		}
		return nil
	},
}

var requestListCmd = &cobra.Command{
	Use:   "list <item-id>",
	Short: "List every request filed for an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		requests, err := a.workflow.ListRequestsForItem(context.Background(), args[0])
		if err != nil {
			return err
		}
		for _, req := range requests {
			printRequest(req)
		}
		return nil
	},
}

func printRequest(req *workflow.ApprovalRequest) {
	line := fmt.Sprintf("%s  %s -> %s  [%s]", req.ID(), req.ItemID(), req.TargetStatus(), req.State())
	if req.Outcome() != "" {
		line += fmt.Sprintf("  outcome=%s", req.Outcome())
	}
	if req.CloseReason() != "" {
		line += fmt.Sprintf("  reason=%s", req.CloseReason())
	}
	fmt.Println(line)
	fmt.Printf("  proposer=%s opened=%s\n", req.Proposer(), req.OpenedAt().Format(time.RFC3339))
}
