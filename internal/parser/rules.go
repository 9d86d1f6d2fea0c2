package parser

import (
	"context"
	"strings"

	"cashmate/internal/core"
)

// counterpartPolicy says which side of an implicit transfer the single
// named account takes, and what the synthesized counterpart is.
type counterpartPolicy int

const (
	anchoredOnly counterpartPolicy = iota // both accounts come from dari/ke anchors
	namedIsSource                         // withdrawal: named account pays, counterpart receives
	namedIsDest                           // topup: counterpart pays, named account receives
)

// transferRule pairs marker phrases with their counterpart policy. The
// table is ordered data, first match wins, so new phrasings extend it
// without touching control flow.
type transferRule struct {
	markers     []string
	policy      counterpartPolicy
	counterpart string
}

var transferRules = []transferRule{
	{markers: []string{"tarik tunai", "ambil tunai", "tarik", "ambil"}, policy: namedIsSource, counterpart: "cash"},
	{markers: []string{"topup", "top up", "isi saldo"}, policy: namedIsDest, counterpart: "cash"},
	{markers: []string{"transfer", "pindah", "kirim"}, policy: anchoredOnly, counterpart: "cash"},
}

var incomeKeywords = []string{
	"gaji", "salary", "bonus", "terima", "dapat", "penghasilan",
	"pendapatan", "insentif", "freelance",
}

// categoryRule maps keyword sets to a category, evaluated in order with
// first match winning.
type categoryRule struct {
	category string
	keywords []string
}

var categoryRules = []categoryRule{
	{category: "makanan", keywords: []string{
		"makan", "kopi", "nasi", "ayam", "ikan", "daging", "sayur", "buah",
		"jus", "minum", "bakso", "mie", "soto", "rawon", "gulai", "rendang",
		"gudeg", "pecel", "dimsum", "pizza", "burger", "kentang", "goreng",
		"roti", "kue", "donat", "martabak", "es", "soda", "lawson",
		"indomaret", "alfamart", "familymart", "restoran", "warung", "cafe",
		"kedai", "kantin", "sarapan", "snack",
	}},
	{category: "transportasi", keywords: []string{
		"gojek", "grab", "uber", "taxi", "ojek", "angkot", "bus", "kereta",
		"pesawat", "bensin", "pertamax", "pertalite", "solar", "parkir",
		"tol", "tiket", "terminal", "stasiun", "bandara", "transport",
	}},
	{category: "belanja", keywords: []string{
		"beli", "belanja", "shop", "mall", "supermarket", "minimarket",
		"pasar", "toko", "baju", "celana", "sepatu", "tas", "elektronik",
		"handphone", "laptop", "charger", "kosmetik", "sabun", "shampoo",
		"skincare", "shopee", "tokopedia", "bukalapak", "lazada", "blibli",
	}},
	{category: "hiburan", keywords: []string{
		"nonton", "bioskop", "film", "konser", "musik", "game", "gaming",
		"hiburan", "rekreasi", "liburan", "wisata", "hotel", "penginapan",
		"villa", "resort", "travel", "tour",
	}},
}

// Words that never name an account even when they sit next to an anchor.
var accountStopWords = map[string]struct{}{
	"transfer": {}, "pindah": {}, "tarik": {}, "ambil": {}, "kirim": {},
	"dari": {}, "ke": {}, "topup": {}, "top": {}, "up": {}, "isi": {},
	"saldo": {}, "tunai": {}, "pake": {}, "pakai": {}, "via": {},
}

// RuleClassifier is the deterministic fallback path. It is always
// available and never calls out.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify derives a draft from keyword tables and positional anchors.
// Input without an amount token fails with core.ErrNotATransaction; that
// is the single condition separating chat from transaction input.
func (c *RuleClassifier) Classify(_ context.Context, text string) (core.Draft, error) {
	amount, token, err := core.FindAmount(text)
	if err != nil {
		return core.Draft{}, err
	}

	lower := strings.ToLower(text)
	words := strings.Fields(lower)
	note := noteWithoutAmount(text, token)

	if rule, ok := matchTransferRule(words); ok {
		src, dst := extractTransferAccounts(words, rule)
		return core.Draft{
			Kind:          core.Transfer,
			Amount:        amount,
			SourceAccount: src,
			DestAccount:   dst,
			Category:      "transfer",
			Note:          note,
		}, nil
	}

	kind := core.Expense
	category := ""
	if hasAnyKeyword(words, incomeKeywords) {
		kind = core.Income
		category = "gaji"
	}
	if category == "" {
		category = matchCategory(words)
	}

	return core.Draft{
		Kind:     kind,
		Amount:   amount,
		Account:  extractSingleAccount(words),
		Category: category,
		Note:     note,
	}, nil
}

// matchTransferRule finds the first marker phrase present in the input, or
// the full "dari X ke Y" pattern. A bare "ke" is not a transfer marker:
// "gojek ke kantor 20rb" is an expense.
func matchTransferRule(words []string) (transferRule, bool) {
	for _, rule := range transferRules {
		for _, marker := range rule.markers {
			if containsPhrase(words, marker) {
				return rule, true
			}
		}
	}
	if dari, ke := anchorIndexes(words); dari >= 0 && ke > dari {
		return transferRule{policy: anchoredOnly, counterpart: "cash"}, true
	}
	return transferRule{}, false
}

// extractTransferAccounts resolves source and destination from positional
// anchors, falling back to the rule's implicit counterpart pairing when
// only one account is named.
func extractTransferAccounts(words []string, rule transferRule) (src, dst string) {
	src, dst = "cash", "cash"

	switch rule.policy {
	case namedIsSource:
		if name, ok := firstAccountWord(words); ok {
			src, dst = name, rule.counterpart
		}
	case namedIsDest:
		if name, ok := firstAccountWord(words); ok {
			src, dst = rule.counterpart, name
		}
	}

	// Explicit anchors override the implicit pairing.
	dari, ke := anchorIndexes(words)
	if dari >= 0 && ke > dari {
		if name, ok := accountAt(words, dari+1); ok {
			src = name
		}
		if name, ok := accountAt(words, ke+1); ok {
			dst = name
		}
		return src, dst
	}
	if ke >= 0 {
		if name, ok := accountAt(words, ke-1); ok {
			src = name
		}
		if name, ok := accountAt(words, ke+1); ok {
			dst = name
		}
	} else if dari >= 0 {
		if name, ok := accountAt(words, dari+1); ok {
			src = name
		}
	}
	return src, dst
}

func anchorIndexes(words []string) (dari, ke int) {
	dari, ke = -1, -1
	for i, w := range words {
		switch w {
		case "dari":
			if dari < 0 {
				dari = i
			}
		case "ke":
			ke = i
		}
	}
	return dari, ke
}

// accountAt interprets the word at index i as an account name. Known
// accounts resolve to their canonical name; an unknown word is accepted
// as a custom account name unless it is a marker or carries digits.
func accountAt(words []string, i int) (string, bool) {
	if i < 0 || i >= len(words) {
		return "", false
	}
	w := words[i]
	if _, stop := accountStopWords[w]; stop {
		return "", false
	}
	if containsDigit(w) {
		return "", false
	}
	if core.IsCashSynonym(w) {
		return "cash", true
	}
	return w, true
}

// firstAccountWord scans for the first known bank or wallet name.
func firstAccountWord(words []string) (string, bool) {
	for _, w := range words {
		if core.IsKnownBank(w) || core.IsKnownWallet(w) {
			return w, true
		}
	}
	return "", false
}

// extractSingleAccount picks the account for income/expense drafts:
// the word after an explicit "pake"/"ke" anchor when it names a known
// account, else the first known bank or wallet anywhere in the text,
// else cash.
func extractSingleAccount(words []string) string {
	for i, w := range words {
		if w != "pake" && w != "pakai" && w != "ke" && w != "via" {
			continue
		}
		if i+1 >= len(words) {
			continue
		}
		next := words[i+1]
		switch {
		case core.IsCashSynonym(next):
			return "cash"
		case core.IsKnownBank(next) || core.IsKnownWallet(next) || next == "bank":
			return next
		}
	}
	if name, ok := firstAccountWord(words); ok {
		return name
	}
	for _, w := range words {
		if core.IsCashSynonym(w) {
			return "cash"
		}
	}
	return "cash"
}

func matchCategory(words []string) string {
	for _, rule := range categoryRules {
		if hasAnyKeyword(words, rule.keywords) {
			return rule.category
		}
	}
	return core.DefaultCategory
}

func hasAnyKeyword(words []string, keywords []string) bool {
	for _, k := range keywords {
		if containsPhrase(words, k) {
			return true
		}
	}
	return false
}

// containsPhrase matches a space-separated phrase against whole words,
// avoiding the substring traps of naive matching ("dari" inside "daring").
func containsPhrase(words []string, phrase string) bool {
	parts := strings.Fields(phrase)
	if len(parts) == 0 {
		return false
	}
outer:
	for i := 0; i+len(parts) <= len(words); i++ {
		for j, p := range parts {
			if words[i+j] != p {
				continue outer
			}
		}
		return true
	}
	return false
}

func containsDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}

// noteWithoutAmount strips the matched amount token from the raw text;
// what remains is the note.
func noteWithoutAmount(text, token string) string {
	note := text
	if idx := strings.Index(strings.ToLower(text), strings.ToLower(token)); idx >= 0 {
		note = text[:idx] + text[idx+len(token):]
	}
	note = strings.Join(strings.Fields(note), " ")
	if note == "" {
		return core.DefaultNote
	}
	return note
}
