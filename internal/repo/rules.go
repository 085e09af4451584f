package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/promo-engine/internal/discount"
)

// ErrRuleNotFound indicates the requested rule does not exist or is archived.
var ErrRuleNotFound = errors.New("repo: rule not found")

const ruleColumns = `id, code, name, percent_off::text, amount_off::text, amount_currency,
	amount_tax_included, target, target_product_id, exclude_discounted, free_shipping,
	gift_product_id, gift_variant_id, active, valid_from, valid_to`

// Rules persists discount rules and resolves selection restrictions.
type Rules struct {
	DB DB
}

// GetByCode loads a single rule by its code.
func (r Rules) GetByCode(ctx context.Context, code string) (discount.Rule, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+ruleColumns+` FROM discount_rules WHERE code = $1`, code)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return discount.Rule{}, ErrRuleNotFound
		}
		return discount.Rule{}, err
	}
	return rule, nil
}

// ListByCodes loads rules for the given codes, preserving the input order.
// Unknown codes yield ErrRuleNotFound.
func (r Rules) ListByCodes(ctx context.Context, codes []string) ([]discount.Rule, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT `+ruleColumns+` FROM discount_rules WHERE code = ANY($1)`, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byCode := make(map[string]discount.Rule, len(codes))
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		byCode[rule.Code] = rule
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]discount.Rule, 0, len(codes))
	for _, code := range codes {
		rule, ok := byCode[code]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, code)
		}
		out = append(out, rule)
	}
	return out, nil
}

// Create inserts a new rule and returns it with its generated identifier.
func (r Rules) Create(ctx context.Context, rule discount.Rule) (discount.Rule, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO discount_rules (
			code, name, percent_off, amount_off, amount_currency, amount_tax_included,
			target, target_product_id, exclude_discounted, free_shipping,
			gift_product_id, gift_variant_id, active, valid_from, valid_to
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING `+ruleColumns,
		ruleArgs(rule)...)
	return scanRule(row)
}

// Update replaces a rule's fields, matching on code.
func (r Rules) Update(ctx context.Context, rule discount.Rule) (discount.Rule, error) {
	args := ruleArgs(rule)
	row := r.DB.QueryRow(ctx, `
		UPDATE discount_rules SET
			name = $2, percent_off = $3, amount_off = $4, amount_currency = $5,
			amount_tax_included = $6, target = $7, target_product_id = $8,
			exclude_discounted = $9, free_shipping = $10, gift_product_id = $11,
			gift_variant_id = $12, active = $13, valid_from = $14, valid_to = $15,
			updated_at = now()
		WHERE code = $1
		RETURNING `+ruleColumns,
		args...)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return discount.Rule{}, ErrRuleNotFound
		}
		return discount.Rule{}, err
	}
	return rule, nil
}

// Archive deactivates a rule without deleting it.
func (r Rules) Archive(ctx context.Context, code string) error {
	tag, err := r.DB.Exec(ctx, `UPDATE discount_rules SET active = false, updated_at = now() WHERE code = $1`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// ReplaceSelection rewrites the selection restriction pairs for a rule.
func (r Rules) ReplaceSelection(ctx context.Context, ruleID uuid.UUID, refs []discount.SelectionRef) error {
	if _, err := r.DB.Exec(ctx, `DELETE FROM rule_selections WHERE rule_id = $1`, ruleID); err != nil {
		return err
	}
	for _, ref := range refs {
		var variant *uuid.UUID
		if ref.VariantID != uuid.Nil {
			v := ref.VariantID
			variant = &v
		}
		if _, err := r.DB.Exec(ctx,
			`INSERT INTO rule_selections (rule_id, product_id, variant_id) VALUES ($1, $2, $3)`,
			ruleID, ref.ProductID, variant); err != nil {
			return err
		}
	}
	return nil
}

// Resolve implements discount.SelectionResolver against the rule_selections
// table. Database failures propagate to the engine caller unchanged.
func (r Rules) Resolve(ctx context.Context, rule discount.Rule, _ []*discount.Line) ([]discount.SelectionRef, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT product_id, variant_id FROM rule_selections WHERE rule_id = $1`, rule.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []discount.SelectionRef
	for rows.Next() {
		var (
			productID uuid.UUID
			variantID *uuid.UUID
		)
		if err := rows.Scan(&productID, &variantID); err != nil {
			return nil, err
		}
		ref := discount.SelectionRef{ProductID: productID}
		if variantID != nil {
			ref.VariantID = *variantID
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func ruleArgs(rule discount.Rule) []any {
	var (
		targetProduct *uuid.UUID
		giftProduct   *uuid.UUID
		giftVariant   *uuid.UUID
	)
	if rule.TargetProductID != uuid.Nil {
		v := rule.TargetProductID
		targetProduct = &v
	}
	if rule.Gift != nil {
		p := rule.Gift.ProductID
		giftProduct = &p
		if rule.Gift.VariantID != uuid.Nil {
			v := rule.Gift.VariantID
			giftVariant = &v
		}
	}
	return []any{
		rule.Code, rule.Name, rule.PercentOff.String(), rule.AmountOff.String(),
		rule.AmountCurrency, rule.AmountTaxIncluded, rule.Target.String(),
		targetProduct, rule.ExcludeDiscounted, rule.FreeShipping,
		giftProduct, giftVariant, rule.Active, rule.ValidFrom, rule.ValidTo,
	}
}

func scanRule(row pgx.Row) (discount.Rule, error) {
	var (
		rule          discount.Rule
		percentOff    string
		amountOff     string
		target        string
		targetProduct *uuid.UUID
		giftProduct   *uuid.UUID
		giftVariant   *uuid.UUID
		validFrom     *time.Time
		validTo       *time.Time
	)
	err := row.Scan(
		&rule.ID, &rule.Code, &rule.Name, &percentOff, &amountOff, &rule.AmountCurrency,
		&rule.AmountTaxIncluded, &target, &targetProduct, &rule.ExcludeDiscounted,
		&rule.FreeShipping, &giftProduct, &giftVariant, &rule.Active, &validFrom, &validTo,
	)
	if err != nil {
		return discount.Rule{}, err
	}
	if rule.PercentOff, err = decimal.NewFromString(percentOff); err != nil {
		return discount.Rule{}, fmt.Errorf("parse percent_off: %w", err)
	}
	if rule.AmountOff, err = decimal.NewFromString(amountOff); err != nil {
		return discount.Rule{}, fmt.Errorf("parse amount_off: %w", err)
	}
	rule.Target = discount.ParseTarget(target)
	if targetProduct != nil {
		rule.TargetProductID = *targetProduct
	}
	if giftProduct != nil {
		gift := &discount.Gift{ProductID: *giftProduct}
		if giftVariant != nil {
			gift.VariantID = *giftVariant
		}
		rule.Gift = gift
	}
	rule.ValidFrom = validFrom
	rule.ValidTo = validTo
	return rule, nil
}
