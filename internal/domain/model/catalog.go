package model

// CreditPackage is static catalog data; it is compiled in, not persisted.
type CreditPackage struct {
	ID           string
	Name         string // Turkish display name shown on the checkout basket
	Credits      int64
	BonusCredits int64
	PriceUSD     int64
	PriceTL      string // gateway-formatted TRY price
	Features     []string
}

var packages = []CreditPackage{
	{
		ID:       "starter",
		Name:     "Başlangıç Paketi",
		Credits:  160,
		PriceUSD: 10,
		PriceTL:  "270.00",
		Features: []string{
			"160 kredi",
			"Metin ve görsel üretimi",
			"Standart işlem önceliği",
		},
	},
	{
		ID:           "growth",
		Name:         "Büyüme Paketi",
		Credits:      480,
		BonusCredits: 40,
		PriceUSD:     30,
		PriceTL:      "810.00",
		Features: []string{
			"480 kredi + 40 bonus",
			"Metin, görsel ve video üretimi",
			"Yüksek işlem önceliği",
		},
	},
	{
		ID:           "pro",
		Name:         "Pro Paketi",
		Credits:      1600,
		BonusCredits: 300,
		PriceUSD:     100,
		PriceTL:      "2700.00",
		Features: []string{
			"1600 kredi + 300 bonus",
			"Tüm üretim modları",
			"En yüksek işlem önceliği",
			"Öncelikli destek",
		},
	},
}

// Packages returns the catalog in display order.
func Packages() []CreditPackage {
	out := make([]CreditPackage, len(packages))
	copy(out, packages)
	return out
}

// PackageByID returns nil for unknown identifiers.
func PackageByID(id string) *CreditPackage {
	for i := range packages {
		if packages[i].ID == id {
			cp := packages[i]
			return &cp
		}
	}
	return nil
}
