package core

// Known Indonesian bank codes. A referenced name in this set is tagged as a
// bank account; the set also anchors account extraction in the rule-based
// classifier.
var bankNames = map[string]struct{}{
	"bca": {}, "bri": {}, "bni": {}, "mandiri": {}, "btn": {}, "cimb": {},
	"danamon": {}, "mega": {}, "permata": {}, "panin": {}, "bukopin": {},
	"maybank": {}, "bjb": {}, "bsi": {}, "btpn": {}, "jenius": {}, "neo": {},
	"seabank": {}, "uob": {}, "ocbc": {}, "dbs": {}, "hsbc": {},
}

// Known e-wallet names.
var walletNames = map[string]struct{}{
	"dana": {}, "gopay": {}, "ovo": {}, "shopeepay": {}, "shopee": {},
	"linkaja": {},
}

// Synonyms that all resolve to the cash account.
var cashSynonyms = map[string]struct{}{
	"cash": {}, "tunai": {}, "uang": {},
}

// IsKnownBank reports whether the normalized name is a known bank.
func IsKnownBank(name string) bool {
	_, ok := bankNames[name]
	return ok
}

// IsKnownWallet reports whether the normalized name is a known e-wallet.
func IsKnownWallet(name string) bool {
	_, ok := walletNames[name]
	return ok
}

// IsCashSynonym reports whether the normalized word refers to cash.
func IsCashSynonym(name string) bool {
	_, ok := cashSynonyms[name]
	return ok
}

// GuessAccountKind tags an account name for display. The tag carries no
// balance semantics; unknown names default to cash.
func GuessAccountKind(name string) AccountKind {
	n := NormalizeAccountName(name)
	switch {
	case IsKnownBank(n):
		return AccountBank
	case IsKnownWallet(n):
		return AccountEWallet
	default:
		return AccountCash
	}
}
