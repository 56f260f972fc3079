package budgetbook

import "strings"

// Rule maps a keyword to a category label. The rules table is ordered and
// the order is part of the contract: the first matching keyword wins.
type Rule struct {
	Keyword  string
	Category string
}

// Suggestion is a category guess for a free-text description.
type Suggestion struct {
	Category   string
	Confidence float64
}

// ruleConfidence is the fixed confidence of a keyword match.
const ruleConfidence = 0.9

// rules is the static categorization table. Keywords are matched as
// substrings of the normalized description.
var rules = []Rule{
	// Entertainment
	{"netflix", "Entertainment"},
	{"spotify", "Entertainment"},
	{"apple music", "Entertainment"},
	{"apple tv", "Entertainment"},
	{"movie", "Entertainment"},
	{"cinema", "Entertainment"},
	{"theater", "Entertainment"},
	{"youtube", "Entertainment"},
	{"tiktok", "Entertainment"},
	{"instagram", "Entertainment"},
	{"facebook", "Entertainment"},
	{"twitter", "Entertainment"},
	{"snapchat", "Entertainment"},
	{"concert", "Entertainment"},
	{"game", "Entertainment"},
	{"gaming", "Entertainment"},
	{"playstation", "Entertainment"},
	{"ps5", "Entertainment"},
	{"xbox", "Entertainment"},
	{"nintendo", "Entertainment"},
	{"hulu", "Entertainment"},
	{"hotstar", "Entertainment"},
	{"amazon prime", "Entertainment"},
	{"hbo", "Entertainment"},
	{"ticket", "Entertainment"},
	{"tickets", "Entertainment"},

	// Daily Essentials
	{"grocery", "Daily Essentials"},
	{"groceries", "Daily Essentials"},
	{"food", "Daily Essentials"},
	{"supermarket", "Daily Essentials"},
	{"market", "Daily Essentials"},
	{"walmart", "Daily Essentials"},
	{"target", "Daily Essentials"},
	{"costco", "Daily Essentials"},
	{"kroger", "Daily Essentials"},
	{"safeway", "Daily Essentials"},
	{"whole foods", "Daily Essentials"},
	{"aldi", "Daily Essentials"},
	{"lidl", "Daily Essentials"},
	{"trader", "Daily Essentials"},
	{"blinkit", "Daily Essentials"},
	{"zepto", "Daily Essentials"},
	{"instamart", "Daily Essentials"},

	// Food
	{"restaurant", "Food"},
	{"dining", "Food"},
	{"coffee", "Food"},
	{"cafe", "Food"},
	{"starbucks", "Food"},
	{"mcdonalds", "Food"},
	{"burger", "Food"},
	{"pizza", "Food"},
	{"taco", "Food"},
	{"sushi", "Food"},
	{"lunch", "Food"},
	{"dinner", "Food"},
	{"breakfast", "Food"},
	{"takeout", "Food"},
	{"delivery", "Food"},
	{"dominos", "Food"},
	{"ubereats", "Food"},
	{"zomato", "Food"},
	{"swiggy", "Food"},
	{"foodpanda", "Food"},
	{"grubhub", "Food"},
	{"doordash", "Food"},
	{"pizza hut", "Food"},
	{"burger king", "Food"},
	{"kfc", "Food"},
	{"subway", "Food"},

	// Living Cost
	{"rent", "Living Cost"},
	{"mortgage", "Living Cost"},
	{"housing", "Living Cost"},
	{"apartment", "Living Cost"},
	{"lease", "Living Cost"},
	{"landlord", "Living Cost"},
	{"property", "Living Cost"},
	{"home", "Living Cost"},

	// Transportation
	{"uber", "Transportation"},
	{"ola", "Transportation"},
	{"rapido", "Transportation"},
	{"indrive", "Transportation"},
	{"lyft", "Transportation"},
	{"taxi", "Transportation"},
	{"cab", "Transportation"},
	{"gas", "Transportation"},
	{"fuel", "Transportation"},
	{"petrol", "Transportation"},
	{"diesel", "Transportation"},
	{"car", "Transportation"},
	{"auto", "Transportation"},
	{"vehicle", "Transportation"},
	{"bus", "Transportation"},
	{"train", "Transportation"},
	{"metro", "Transportation"},
	{"flight", "Transportation"},
	{"airline", "Transportation"},
	{"parking", "Transportation"},
	{"toll", "Transportation"},
	{"maintenance", "Transportation"},
	{"repair", "Transportation"},
	{"service", "Transportation"},
	{"insurance", "Transportation"},

	// Healthcare
	{"doctor", "Healthcare"},
	{"medical", "Healthcare"},
	{"health", "Healthcare"},
	{"hospital", "Healthcare"},
	{"clinic", "Healthcare"},
	{"pharmacy", "Healthcare"},
	{"medicine", "Healthcare"},
	{"prescription", "Healthcare"},
	{"dental", "Healthcare"},
	{"dentist", "Healthcare"},
	{"vision", "Healthcare"},
	{"optometrist", "Healthcare"},
	{"therapy", "Healthcare"},

	// Utilities
	{"utility", "Utilities"},
	{"electric", "Utilities"},
	{"electricity", "Utilities"},
	{"water", "Utilities"},
	{"gas bill", "Utilities"},
	{"heating", "Utilities"},
	{"cooling", "Utilities"},
	{"internet", "Utilities"},
	{"wifi", "Utilities"},
	{"broadband", "Utilities"},
	{"phone", "Utilities"},
	{"mobile", "Utilities"},
	{"cell", "Utilities"},
	{"cable", "Utilities"},
	{"tv", "Utilities"},
	{"garbage", "Utilities"},
	{"trash", "Utilities"},
	{"sewage", "Utilities"},

	// Shopping
	{"amazon", "Shopping"},
	{"flipkart", "Shopping"},
	{"myntra", "Shopping"},
	{"ajio", "Shopping"},
	{"ebay", "Shopping"},
	{"shopping", "Shopping"},
	{"store", "Shopping"},
	{"mall", "Shopping"},
	{"retail", "Shopping"},
	{"clothing", "Shopping"},
	{"clothes", "Shopping"},
	{"shoes", "Shopping"},
	{"electronics", "Shopping"},
	{"furniture", "Shopping"},
	{"appliance", "Shopping"},
	{"decor", "Shopping"},
	{"gift", "Shopping"},

	// Education
	{"school", "Education"},
	{"education", "Education"},
	{"college", "Education"},
	{"university", "Education"},
	{"tuition", "Education"},
	{"course", "Education"},
	{"class", "Education"},
	{"book", "Education"},
	{"textbook", "Education"},
	{"supplies", "Education"},
	{"student", "Education"},
	{"loan", "Education"},
}

// Rules returns a copy of the categorization table, in match order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Categories returns the distinct category labels of the rules table, in
// first-appearance order.
func Categories() []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rules {
		if !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	return out
}

// Classify guesses a category for a free-text description. It is
// deterministic and does no I/O: the description is trimmed and lowercased,
// descriptions shorter than 3 characters yield no suggestion, and the first
// rule whose keyword is a substring of the normalized text wins.
//
// Absence of a match is a valid "no suggestion" result, not an error.
func Classify(description string) (Suggestion, bool) {
	text := strings.ToLower(strings.TrimSpace(description))
	if len(text) < 3 {
		return Suggestion{}, false
	}
	for _, r := range rules {
		if strings.Contains(text, r.Keyword) {
			return Suggestion{Category: r.Category, Confidence: ruleConfidence}, true
		}
	}
	return Suggestion{}, false
}
