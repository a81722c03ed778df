package main

import (
	"fmt"
	"io"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"pass-eligibility-api/internal/models"
	"pass-eligibility-api/internal/rules"
	"pass-eligibility-api/internal/validation"
)

var (
	profileFile     string
	beneficiaryFile string
	evaluationDate  string
	holyWeek        bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one beneficiary offline",
	Long: `Reads a titular profile and a beneficiary as JSON, in the same shape as the
API request bodies, and prints the eligibility result without touching the
database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return evaluate(cmd.OutOrStdout())
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&profileFile, "profile", "", "Profile JSON file")
	evaluateCmd.Flags().StringVar(&beneficiaryFile, "beneficiary", "", "Beneficiary JSON file")
	evaluateCmd.Flags().StringVar(&evaluationDate, "date", "", "Evaluation date (YYYY-MM-DD), defaults to today")
	evaluateCmd.Flags().BoolVar(&holyWeek, "holy-week", false, "Treat Holy Week as a blackout period")
	evaluateCmd.MarkFlagRequired("profile")
	evaluateCmd.MarkFlagRequired("beneficiary")
}

func evaluate(out io.Writer) error {
	now := time.Now().UTC()
	if evaluationDate != "" {
		d, err := validation.ValidateDate(evaluationDate, "date")
		if err != nil {
			return err
		}
		now = d.Time
	}

	var profileReq models.ProfileUpdateRequest
	if err := readJSONFile(profileFile, &profileReq); err != nil {
		return err
	}
	attrs, err := validation.ValidateProfileUpdate(profileReq, now)
	if err != nil {
		return err
	}
	var profile models.Profile
	attrs.Apply(&profile)

	var beneficiaryReq models.BeneficiaryRequest
	if err := readJSONFile(beneficiaryFile, &beneficiaryReq); err != nil {
		return err
	}
	battrs, err := validation.ValidateBeneficiary(beneficiaryReq, now)
	if err != nil {
		return err
	}
	var beneficiary models.Beneficiary
	battrs.Apply(&beneficiary)

	opts := []rules.Option{rules.WithClock(func() time.Time { return now })}
	if holyWeek {
		opts = append(opts, rules.WithHolyWeek())
	}
	engine := rules.NewEngine(opts...)

	beneficiary.FamilyGroup = engine.FamilyGroup(beneficiary, profile.MaritalStatus)
	result := models.BeneficiaryEligibility{
		Beneficiary: beneficiary,
		Result:      engine.CheckEligibility(profile, beneficiary),
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func readJSONFile(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}
