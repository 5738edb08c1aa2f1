package service

import (
	"strings"
	"unicode"
)

type categoryRule struct {
	category string
	keywords []string // substring match
	words    []string // whole-word match
}

// Rules are evaluated in order; the first match wins.
var categoryRules = []categoryRule{
	{category: "Food & Dining", keywords: []string{"zomato", "swiggy", "dominos", "restaurant", "cafe", "mcdonald"}},
	{category: "Groceries", keywords: []string{"bigbasket", "grocery", "dmart", "groceries", "supermarket"}},
	{category: "Travel", keywords: []string{"uber", "ola", "flight", "indigo", "airasia", "train"}},
	{category: "Utilities", keywords: []string{"electricity", "water", "gas", "internet", "mobile"}},
	{category: "Salary", keywords: []string{"salary", "payroll", "salarycredit"}},
	{category: "Healthcare", keywords: []string{"pharmacy", "hospital", "apollo", "medplus", "clinic", "chemist"}},
	{category: "Loan Repayment", keywords: []string{"loan", "instalment", "installment", "equated"}, words: []string{"emi"}},
	{category: "Housing", keywords: []string{"rent", "maintenance", "society"}},
	{category: "Shopping", keywords: []string{"amazon", "flipkart", "myntra", "ajio", "nykaa"}},
	{category: "Entertainment", keywords: []string{"netflix", "hotstar", "spotify", "bookmyshow", "prime video"}},
}

// Categorize assigns a spending category from a transaction description.
func Categorize(description string) string {
	d := strings.ToLower(strings.TrimSpace(description))
	if d == "" {
		return "Uncategorized"
	}

	var tokens map[string]bool
	for _, rule := range categoryRules {
		for _, k := range rule.keywords {
			if strings.Contains(d, k) {
				return rule.category
			}
		}
		if len(rule.words) == 0 {
			continue
		}
		if tokens == nil {
			tokens = wordSet(d)
		}
		for _, w := range rule.words {
			if tokens[w] {
				return rule.category
			}
		}
	}
	return "Other"
}

func wordSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) }) {
		set[f] = true
	}
	return set
}
