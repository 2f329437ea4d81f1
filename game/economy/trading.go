package economy

import (
	"fmt"
	"sort"
	"time"

	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
	"github.com/emberwild/emberwild/game/world"
)

// Trading post limits
const (
	MaxListingPrice    = 1000000
	MaxListingQuantity = 9999
	MaxSellerListings  = 10
	MaxListings        = 500
	ListingLifetime    = 24 * time.Hour
	FeePercent         = 5
)

// Fee is the share of a sale that leaves the economy
func Fee(price int) int {
	return price * FeePercent / 100
}

// Listing is one sell order; Price is for the whole quantity
type Listing struct {
	ID         string           `json:"id"`
	Seller     common.ProfileID `json:"seller"`
	SellerName string           `json:"sellerName"`
	Item       string           `json:"item"`
	Quantity   int              `json:"quantity"`
	Price      int              `json:"price"`
	CreatedAt  int64            `json:"createdAt"`
	ExpiresAt  int64            `json:"expiresAt"`
}

// Ledger resolves the durable record of a seller, online or not
type Ledger interface {
	Profile(id common.ProfileID) *entity.Profile
	// Changed marks the profile for persistence
	Changed(id common.ProfileID)
}

// TradingPost owns every active listing
type TradingPost struct {
	listings map[string]*Listing
	bySeller map[common.ProfileID]int
	nextID   int
}

// NewTradingPost creates an empty trading post
func NewTradingPost() *TradingPost {
	return &TradingPost{
		listings: map[string]*Listing{},
		bySeller: map[common.ProfileID]int{},
	}
}

// Len returns the number of active listings
func (tp *TradingPost) Len() int {
	return len(tp.listings)
}

// Get returns a listing by id
func (tp *TradingPost) Get(id string) *Listing {
	return tp.listings[id]
}

// Listings returns the active listings, oldest first
func (tp *TradingPost) Listings() []*Listing {
	ls := make([]*Listing, 0, len(tp.listings))
	for _, l := range tp.listings {
		ls = append(ls, l)
	}
	sort.Slice(ls, func(i, j int) bool {
		if ls[i].CreatedAt != ls[j].CreatedAt {
			return ls[i].CreatedAt < ls[j].CreatedAt
		}
		return ls[i].ID < ls[j].ID
	})
	return ls
}

// Create lists quantity of an ore for price, taking the items from the seller at once
func (tp *TradingPost) Create(p *entity.Player, w *world.World, item string, quantity, price int, now time.Time) (*Listing, *proto.Rejection) {
	if rej := RequireFacility(p, w, world.TradingPost); rej != nil {
		return nil, rej
	}
	if !entity.IsOre(item) {
		return nil, proto.Reject("item", "Only ore can be traded.")
	}
	if quantity < 1 || quantity > MaxListingQuantity {
		return nil, proto.Reject("quantity", fmt.Sprintf("Quantity must be between 1 and %d.", MaxListingQuantity))
	}
	if price < 1 || price > MaxListingPrice {
		return nil, proto.Reject("price", fmt.Sprintf("Price must be between 1 and %d.", MaxListingPrice))
	}
	seller := p.Profile.ID
	if tp.bySeller[seller] >= MaxSellerListings {
		return nil, proto.Reject("listing", fmt.Sprintf("You can have at most %d listings.", MaxSellerListings))
	}
	if len(tp.listings) >= MaxListings {
		return nil, proto.Reject("listing", "The trading post is full.")
	}
	if !p.Inventory.Remove(item, quantity) {
		return nil, proto.Reject("quantity", "You do not have that many.")
	}

	tp.nextID++
	l := &Listing{
		ID:         fmt.Sprintf("L%d", tp.nextID),
		Seller:     seller,
		SellerName: p.Name,
		Item:       item,
		Quantity:   quantity,
		Price:      price,
		CreatedAt:  entity.Millis(now),
		ExpiresAt:  entity.Millis(now.Add(ListingLifetime)),
	}
	tp.add(l)
	return l, nil
}

func (tp *TradingPost) add(l *Listing) {
	tp.listings[l.ID] = l
	tp.bySeller[l.Seller]++
}

func (tp *TradingPost) remove(l *Listing) {
	delete(tp.listings, l.ID)
	if tp.bySeller[l.Seller]--; tp.bySeller[l.Seller] <= 0 {
		delete(tp.bySeller, l.Seller)
	}
}

// refund returns a listing's items to its seller's durable record
func (tp *TradingPost) refund(l *Listing, ledger Ledger) bool {
	pr := ledger.Profile(l.Seller)
	if pr == nil {
		return false
	}
	if pr.Inventory == nil {
		pr.Inventory = entity.Inventory{}
	}
	pr.Inventory.Add(l.Item, l.Quantity)
	ledger.Changed(l.Seller)
	return true
}

// Cancel withdraws the hero's own listing and returns the items
func (tp *TradingPost) Cancel(p *entity.Player, w *world.World, id string, ledger Ledger) (*Listing, *proto.Rejection) {
	if rej := RequireFacility(p, w, world.TradingPost); rej != nil {
		return nil, rej
	}
	l := tp.listings[id]
	if l == nil {
		return nil, proto.Reject("listingId", "That listing is no longer available.")
	}
	if l.Seller != p.Profile.ID {
		return nil, proto.Reject("listingId", "You can only cancel your own listings.")
	}
	tp.remove(l)
	p.Inventory.Add(l.Item, l.Quantity)
	ledger.Changed(l.Seller)
	return l, nil
}

// Buy pays for a listing, hands the items to the buyer and credits the seller's bank minus the fee
func (tp *TradingPost) Buy(p *entity.Player, w *world.World, id string, ledger Ledger) (*Listing, *proto.Rejection) {
	if rej := RequireFacility(p, w, world.TradingPost); rej != nil {
		return nil, rej
	}
	l := tp.listings[id]
	if l == nil {
		return nil, proto.Reject("listingId", "That listing is no longer available.")
	}
	if l.Seller == p.Profile.ID {
		return nil, proto.Reject("listingId", "You cannot buy your own listing.")
	}
	seller := ledger.Profile(l.Seller)
	if seller == nil {
		return nil, proto.Reject("listingId", "The seller could not be found.")
	}
	if !p.Inventory.Remove(entity.Coins, l.Price) {
		return nil, proto.Reject("coins", "Not enough coins.")
	}

	tp.remove(l)
	p.Inventory.Add(l.Item, l.Quantity)
	if seller.Bank == nil {
		seller.Bank = entity.Inventory{}
	}
	seller.Bank.Add(entity.Coins, l.Price-Fee(l.Price))
	ledger.Changed(p.Profile.ID)
	ledger.Changed(l.Seller)
	return l, nil
}

// Sweep removes expired listings and refunds their sellers
func (tp *TradingPost) Sweep(now time.Time, ledger Ledger) []*Listing {
	var expired []*Listing
	nowMs := entity.Millis(now)
	for _, l := range tp.Listings() {
		if l.ExpiresAt > nowMs {
			continue
		}
		if !tp.refund(l, ledger) {
			// keep it until the seller's record is reachable
			continue
		}
		tp.remove(l)
		expired = append(expired, l)
	}
	return expired
}

// RefundAll returns every listing to its seller, used at shutdown
func (tp *TradingPost) RefundAll(ledger Ledger) []*Listing {
	var refunded []*Listing
	for _, l := range tp.Listings() {
		if tp.refund(l, ledger) {
			tp.remove(l)
			refunded = append(refunded, l)
		}
	}
	return refunded
}
