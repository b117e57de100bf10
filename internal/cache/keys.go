package cache

import (
	"strings"

	"github.com/google/uuid"
)

// Key prefixes for each reference source. They double as invalidation scopes.
const (
	PrefixProduct = "product:"
	PrefixOrigin  = "origin:"
	PrefixTiers   = "tiers:"
	PrefixRules   = "rules:"
	PrefixTariff  = "tariff:"
	PrefixFreight = "freight:"
)

// AllPrefixes lists every reference prefix, used for full invalidation.
var AllPrefixes = []string{PrefixProduct, PrefixOrigin, PrefixTiers, PrefixRules, PrefixTariff, PrefixFreight}

// KeyProduct returns the key for a catalog entry.
func KeyProduct(id uuid.UUID) string { return PrefixProduct + id.String() }

// KeyOrigin returns the key for a supplier's origin country.
func KeyOrigin(supplierID uuid.UUID) string { return PrefixOrigin + supplierID.String() }

// KeyTiers returns the key for a product's tier table.
func KeyTiers(productID uuid.UUID) string { return PrefixTiers + productID.String() }

// KeyRules returns the key for the volume rules applicable to a product.
func KeyRules(productID, categoryID, supplierID uuid.UUID) string {
	return PrefixRules + join(productID.String(), categoryID.String(), supplierID.String())
}

// KeyTariff returns the key for a product's classification at a destination.
func KeyTariff(productID uuid.UUID, destination string) string {
	return PrefixTariff + join(productID.String(), strings.ToUpper(destination))
}

// KeyFreight returns the key for a normalised freight lane.
func KeyFreight(lane string) string { return PrefixFreight + lane }

func join(parts ...string) string { return strings.Join(parts, ":") }
