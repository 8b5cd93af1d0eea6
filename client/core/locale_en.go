// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"miauswap.org/cdex/client/i18n"
)

// Topic is a language-independent unique ID for a notification message.
type Topic string

// Notification topics.
const (
	TopicOrderPlaced           Topic = "OrderPlaced"
	TopicOrderRejected         Topic = "OrderRejected"
	TopicInsufficientBalance   Topic = "InsufficientBalance"
	TopicSubmissionInProgress  Topic = "SubmissionInProgress"
	TopicOrderCancelled        Topic = "OrderCancelled"
	TopicCancelError           Topic = "CancelError"
	TopicOrderPartiallyFilled  Topic = "OrderPartiallyFilled"
	TopicOrderFilled           Topic = "OrderFilled"
	TopicFillError             Topic = "FillError"
	TopicStaked                Topic = "Staked"
	TopicStakeRejected         Topic = "StakeRejected"
	TopicInsufficientStake     Topic = "InsufficientStake"
	TopicUnstaked              Topic = "Unstaked"
	TopicFundsLocked           Topic = "FundsLocked"
	TopicUnstakeRejected       Topic = "UnstakeRejected"
	TopicLowBalance            Topic = "LowBalance"
	TopicAccessLost            Topic = "AccessLost"
	TopicAccessGained          Topic = "AccessGained"
	TopicDistributionReceived  Topic = "DistributionReceived"
	TopicDistributionRecorded  Topic = "DistributionRecorded"
	TopicBalanceUpdated        Topic = "BalanceUpdated"
	TopicPriceUpdated          Topic = "PriceUpdated"
	TopicSeeded                Topic = "Seeded"
	TopicOrderSubmissionFailed Topic = "OrderSubmissionFailed"
)

var translator = i18n.NewPackageTranslator("core")

// originLocale is the American English translations.
var originLocale = map[Topic]*i18n.DocumentedTranslation{
	TopicOrderPlaced: {
		Translation: &i18n.Translation{
			Subject:  "Order placed",
			Template: "%s order placed: %v %s @ %s",
		},
		Docs: "[side, quantity, CAT symbol, price with unit or 'Market']",
	},
	TopicOrderRejected: {
		Translation: &i18n.Translation{
			Subject:  "Order rejected",
			Template: "Order rejected: %v",
		},
		Docs: "[error]",
	},
	TopicInsufficientBalance: {
		Translation: &i18n.Translation{
			Subject:  "Insufficient balance",
			Template: "Insufficient MIAU balance for this order.",
		},
	},
	TopicSubmissionInProgress: {
		Translation: &i18n.Translation{
			Subject:  "Order in progress",
			Template: "An order submission is already in progress.",
		},
	},
	TopicOrderSubmissionFailed: {
		Translation: &i18n.Translation{
			Subject:  "Order failed",
			Template: "%s order for %v %s could not be placed: %v",
		},
		Docs: "[side, quantity, CAT symbol, error]",
	},
	TopicOrderCancelled: {
		Translation: &i18n.Translation{
			Subject:  "Order cancelled",
			Template: "Order cancelled.",
		},
	},
	TopicCancelError: {
		Translation: &i18n.Translation{
			Subject:  "Cancel failed",
			Template: "Could not cancel order %s: %v",
		},
		Docs: "[order ID, error]",
	},
	TopicOrderPartiallyFilled: {
		Translation: &i18n.Translation{
			Subject:  "Order partially filled",
			Template: "%s order on %s filled %v of %v at %s MIAU",
		},
		Docs: "[side, market, filled, quantity, price]",
	},
	TopicOrderFilled: {
		Translation: &i18n.Translation{
			Subject:  "Order filled",
			Template: "%s order for %v %s filled at %s MIAU",
		},
		Docs: "[side, quantity, CAT symbol, price]",
	},
	TopicFillError: {
		Translation: &i18n.Translation{
			Subject:  "Fill failed",
			Template: "Could not fill order %s: %v",
		},
		Docs: "[order ID, error]",
	},
	TopicStaked: {
		Translation: &i18n.Translation{
			Subject:  "Staked",
			Template: "Successfully staked %v MIAU for %d days.",
		},
		Docs: "[amount, lock days]",
	},
	TopicStakeRejected: {
		Translation: &i18n.Translation{
			Subject:  "Staking rejected",
			Template: "Could not stake: %v",
		},
		Docs: "[error]",
	},
	TopicInsufficientStake: {
		Translation: &i18n.Translation{
			Subject:  "Insufficient balance",
			Template: "Insufficient MIAU balance for staking.",
		},
	},
	TopicUnstaked: {
		Translation: &i18n.Translation{
			Subject:  "Unstaked",
			Template: "Unstaked %v MIAU. Your staking tier is now %s.",
		},
		Docs: "[amount, tier name]",
	},
	TopicFundsLocked: {
		Translation: &i18n.Translation{
			Subject:  "Funds locked",
			Template: "Your staked MIAU is locked until %s.",
		},
		Docs: "[unlock date]",
	},
	TopicUnstakeRejected: {
		Translation: &i18n.Translation{
			Subject:  "Unstake rejected",
			Template: "Could not unstake: %v",
		},
		Docs: "[error]",
	},
	TopicLowBalance: {
		Translation: &i18n.Translation{
			Subject:  "Low balance",
			Template: "Your MIAU balance is approaching the %v MIAU access threshold. Top up to keep trading access.",
		},
		Docs: "[access threshold]",
	},
	TopicAccessLost: {
		Translation: &i18n.Translation{
			Subject:  "Trading access lost",
			Template: "Your MIAU balance is below the %v MIAU needed for CDEX access.",
		},
		Docs: "[access threshold]",
	},
	TopicAccessGained: {
		Translation: &i18n.Translation{
			Subject:  "Trading access",
			Template: "You now hold enough MIAU to trade on the CDEX.",
		},
	},
	TopicDistributionReceived: {
		Translation: &i18n.Translation{
			Subject:  "Distribution received",
			Template: "Weekly distribution received: %s ETH from %s",
		},
		Docs: "[ETH amount, creator name]",
	},
	TopicDistributionRecorded: {
		Translation: &i18n.Translation{
			Subject:  "Distribution scheduled",
			Template: "%s weekly distribution for the week of %s: %s ETH per CAT",
		},
		Docs: "[creator name, week date, per-CAT ETH]",
	},
	TopicBalanceUpdated: {
		Translation: &i18n.Translation{
			Subject:  "balance",
			Template: "",
		},
	},
	TopicPriceUpdated: {
		Translation: &i18n.Translation{
			Subject:  "price",
			Template: "",
		},
	},
	TopicSeeded: {
		Translation: &i18n.Translation{
			Subject:  "seeded",
			Template: "%s",
		},
		Docs: "[details of a note restored at startup]",
	},
}

func init() {
	for topic, tln := range originLocale {
		translator.Register(string(topic), tln)
	}
}

// formatDetails gives the subject and message of a topic in the active
// language.
func formatDetails(topic Topic, args ...any) (subject, details string) {
	return translator.Format(string(topic), args...)
}
