// Package store provides circulation.TxStore implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/circulation-engine/circulation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements circulation.TxStore with plain maps. WithTx simulates a
// transaction with a snapshot that is restored on error. A single mutex
// serializes writers, which also serializes concurrent borrows of the same
// copy the way the SQLite store's transactions do.
type Memory struct {
	mu    sync.RWMutex
	state *state
}

type state struct {
	items     map[circulation.ItemKey]circulation.CatalogItem
	copies    map[circulation.CopyID]circulation.CopyRecord
	loans     map[circulation.LoanID]circulation.Loan
	loanOrder []circulation.LoanID // insertion order, for stable listings
	fines     map[circulation.LoanID]circulation.Fine
}

func NewMemory() *Memory {
	return &Memory{state: newState()}
}

func newState() *state {
	return &state{
		items:  make(map[circulation.ItemKey]circulation.CatalogItem),
		copies: make(map[circulation.CopyID]circulation.CopyRecord),
		loans:  make(map[circulation.LoanID]circulation.Loan),
		fines:  make(map[circulation.LoanID]circulation.Fine),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.copies {
		c.copies[k] = v
	}
	for k, v := range s.loans {
		c.loans[k] = v
	}
	c.loanOrder = append([]circulation.LoanID{}, s.loanOrder...)
	for k, v := range s.fines {
		c.fines[k] = v
	}
	return c
}

// =============================================================================
// STORE ACCESSORS (locking views)
// =============================================================================

func (m *Memory) Catalog() circulation.CatalogStore     { return catalogView{m: m} }
func (m *Memory) Inventory() circulation.InventoryStore { return inventoryView{m: m} }
func (m *Memory) Loans() circulation.LoanStore          { return loanView{m: m} }
func (m *Memory) Fines() circulation.FineStore          { return fineView{m: m} }

// WithTx executes fn against a transactional view. The mutex is held for the
// whole transaction; on error the pre-transaction snapshot is restored.
func (m *Memory) WithTx(_ context.Context, fn func(circulation.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(txView{m: m}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

// txView exposes the raw state stores while the WithTx lock is held.
type txView struct{ m *Memory }

func (v txView) Catalog() circulation.CatalogStore     { return rawCatalog{s: v.m.state} }
func (v txView) Inventory() circulation.InventoryStore { return rawInventory{s: v.m.state} }
func (v txView) Loans() circulation.LoanStore          { return rawLoans{s: v.m.state} }
func (v txView) Fines() circulation.FineStore          { return rawFines{s: v.m.state} }

// =============================================================================
// CATALOG
// =============================================================================

type rawCatalog struct{ s *state }

func (r rawCatalog) Get(_ context.Context, key circulation.ItemKey) (circulation.CatalogItem, error) {
	item, ok := r.s.items[key]
	if !ok {
		return circulation.CatalogItem{}, circulation.ErrItemNotFound
	}
	return item, nil
}

func (r rawCatalog) Insert(_ context.Context, item circulation.CatalogItem) error {
	if _, ok := r.s.items[item.Key]; ok {
		return circulation.ErrItemExists
	}
	r.s.items[item.Key] = item
	return nil
}

func (r rawCatalog) Search(_ context.Context, query string) ([]circulation.ItemAvailability, error) {
	q := strings.ToLower(query)
	var results []circulation.ItemAvailability
	for _, item := range r.s.items {
		if !strings.Contains(strings.ToLower(item.Title), q) &&
			!strings.Contains(strings.ToLower(item.Author), q) {
			continue
		}
		ia := circulation.ItemAvailability{Item: item}
		for _, c := range r.s.copies {
			if c.ItemKey != item.Key {
				continue
			}
			ia.TotalCopies++
			if c.Available {
				ia.AvailableCopies++
			}
		}
		results = append(results, ia)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Item.Key < results[j].Item.Key
	})
	return results, nil
}

type catalogView struct{ m *Memory }

func (v catalogView) Get(ctx context.Context, key circulation.ItemKey) (circulation.CatalogItem, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return rawCatalog{s: v.m.state}.Get(ctx, key)
}

func (v catalogView) Insert(ctx context.Context, item circulation.CatalogItem) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return rawCatalog{s: v.m.state}.Insert(ctx, item)
}

func (v catalogView) Search(ctx context.Context, query string) ([]circulation.ItemAvailability, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return rawCatalog{s: v.m.state}.Search(ctx, query)
}

// =============================================================================
// INVENTORY
// =============================================================================

type rawInventory struct{ s *state }

func (r rawInventory) Add(_ context.Context, copy circulation.CopyRecord) error {
	r.s.copies[copy.ID] = copy
	return nil
}

func (r rawInventory) Get(_ context.Context, id circulation.CopyID) (circulation.CopyRecord, error) {
	c, ok := r.s.copies[id]
	if !ok {
		return circulation.CopyRecord{}, circulation.ErrCopyNotFound
	}
	return c, nil
}

func (r rawInventory) IsAvailable(ctx context.Context, id circulation.CopyID) (bool, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return c.Available, nil
}

func (r rawInventory) SetAvailability(_ context.Context, id circulation.CopyID, available bool) error {
	c, ok := r.s.copies[id]
	if !ok {
		return circulation.ErrCopyNotFound
	}
	c.Available = available
	r.s.copies[id] = c
	return nil
}

func (r rawInventory) ListByItem(_ context.Context, key circulation.ItemKey) ([]circulation.CopyRecord, error) {
	var copies []circulation.CopyRecord
	for _, c := range r.s.copies {
		if c.ItemKey == key {
			copies = append(copies, c)
		}
	}
	sort.Slice(copies, func(i, j int) bool { return copies[i].ID < copies[j].ID })
	return copies, nil
}

// RemoveCopy deletes a copy record. Not part of the InventoryStore contract;
// exists so tests can exercise the return-after-copy-removal edge case.
func (m *Memory) RemoveCopy(id circulation.CopyID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.copies, id)
}

type inventoryView struct{ m *Memory }

func (v inventoryView) Add(ctx context.Context, copy circulation.CopyRecord) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return rawInventory{s: v.m.state}.Add(ctx, copy)
}

func (v inventoryView) Get(ctx context.Context, id circulation.CopyID) (circulation.CopyRecord, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return rawInventory{s: v.m.state}.Get(ctx, id)
}

func (v inventoryView) IsAvailable(ctx context.Context, id circulation.CopyID) (bool, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return rawInventory{s: v.m.state}.IsAvailable(ctx, id)
}

func (v inventoryView) SetAvailability(ctx context.Context, id circulation.CopyID, available bool) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return rawInventory{s: v.m.state}.SetAvailability(ctx, id, available)
}

func (v inventoryView) ListByItem(ctx context.Context, key circulation.ItemKey) ([]circulation.CopyRecord, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return rawInventory{s: v.m.state}.ListByItem(ctx, key)
}

// =============================================================================
// LOANS
// =============================================================================

type rawLoans struct{ s *state }

func (r rawLoans) Open(_ context.Context, loan circulation.Loan) error {
	// One open loan per copy, same guarantee the SQLite partial unique
	// index provides.
	for _, l := range r.s.loans {
		if l.CopyID == loan.CopyID && l.Open() {
			return &circulation.UnavailableError{CopyID: loan.CopyID, OpenLoanID: l.ID}
		}
	}
	r.s.loans[loan.ID] = loan
	r.s.loanOrder = append(r.s.loanOrder, loan.ID)
	return nil
}

func (r rawLoans) Close(_ context.Context, id circulation.LoanID, returnDate circulation.Date) error {
	l, ok := r.s.loans[id]
	if !ok {
		return circulation.ErrLoanNotFound
	}
	if !l.Open() {
		return &circulation.AlreadyClosedError{LoanID: id, ReturnedOn: l.ReturnDate}
	}
	l.ReturnDate = returnDate
	r.s.loans[id] = l
	return nil
}

func (r rawLoans) Get(_ context.Context, id circulation.LoanID) (circulation.Loan, error) {
	l, ok := r.s.loans[id]
	if !ok {
		return circulation.Loan{}, circulation.ErrLoanNotFound
	}
	return l, nil
}

func (r rawLoans) FindOpenByCopy(_ context.Context, id circulation.CopyID) (circulation.Loan, bool, error) {
	for _, l := range r.s.loans {
		if l.CopyID == id && l.Open() {
			return l, true, nil
		}
	}
	return circulation.Loan{}, false, nil
}

func (r rawLoans) ListByMember(_ context.Context, id circulation.MemberID) ([]circulation.Loan, error) {
	var loans []circulation.Loan
	// Walk newest first.
	for i := len(r.s.loanOrder) - 1; i >= 0; i-- {
		if l, ok := r.s.loans[r.s.loanOrder[i]]; ok && l.MemberID == id {
			loans = append(loans, l)
		}
	}
	return loans, nil
}

type loanView struct{ m *Memory }

func (v loanView) Open(ctx context.Context, loan circulation.Loan) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return rawLoans{s: v.m.state}.Open(ctx, loan)
}

func (v loanView) Close(ctx context.Context, id circulation.LoanID, returnDate circulation.Date) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return rawLoans{s: v.m.state}.Close(ctx, id, returnDate)
}

func (v loanView) Get(ctx context.Context, id circulation.LoanID) (circulation.Loan, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return rawLoans{s: v.m.state}.Get(ctx, id)
}

func (v loanView) FindOpenByCopy(ctx context.Context, id circulation.CopyID) (circulation.Loan, bool, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return rawLoans{s: v.m.state}.FindOpenByCopy(ctx, id)
}

func (v loanView) ListByMember(ctx context.Context, id circulation.MemberID) ([]circulation.Loan, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return rawLoans{s: v.m.state}.ListByMember(ctx, id)
}

// =============================================================================
// FINES
// =============================================================================

type rawFines struct{ s *state }

func (r rawFines) Record(_ context.Context, fine circulation.Fine) error {
	// Idempotent per loan: a second record updates the amount, keeping the
	// original fine ID and payment state.
	if existing, ok := r.s.fines[fine.LoanID]; ok {
		existing.Amount = fine.Amount
		r.s.fines[fine.LoanID] = existing
		return nil
	}
	r.s.fines[fine.LoanID] = fine
	return nil
}

func (r rawFines) Settle(_ context.Context, loanID circulation.LoanID, paymentDate circulation.Date) error {
	f, ok := r.s.fines[loanID]
	if !ok {
		return circulation.ErrFineNotFound
	}
	f.PaymentDate = paymentDate
	r.s.fines[loanID] = f
	return nil
}

func (r rawFines) GetByLoan(_ context.Context, loanID circulation.LoanID) (circulation.Fine, error) {
	f, ok := r.s.fines[loanID]
	if !ok {
		return circulation.Fine{}, circulation.ErrFineNotFound
	}
	return f, nil
}

func (r rawFines) ListOutstanding(_ context.Context) ([]circulation.Fine, error) {
	var fines []circulation.Fine
	for _, f := range r.s.fines {
		if f.Outstanding() {
			fines = append(fines, f)
		}
	}
	sort.Slice(fines, func(i, j int) bool { return fines[i].LoanID < fines[j].LoanID })
	return fines, nil
}

type fineView struct{ m *Memory }

func (v fineView) Record(ctx context.Context, fine circulation.Fine) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return rawFines{s: v.m.state}.Record(ctx, fine)
}

func (v fineView) Settle(ctx context.Context, loanID circulation.LoanID, paymentDate circulation.Date) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return rawFines{s: v.m.state}.Settle(ctx, loanID, paymentDate)
}

func (v fineView) GetByLoan(ctx context.Context, loanID circulation.LoanID) (circulation.Fine, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return rawFines{s: v.m.state}.GetByLoan(ctx, loanID)
}

func (v fineView) ListOutstanding(ctx context.Context) ([]circulation.Fine, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return rawFines{s: v.m.state}.ListOutstanding(ctx)
}
