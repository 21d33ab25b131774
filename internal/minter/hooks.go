package minter

// Hooks receives progress events. Calls arrive on the minting goroutine, in
// pipeline order.
type Hooks interface {
	// OnStartDuplicateCheck fires before the edition lookup.
	OnStartDuplicateCheck()

	// OnCompleteDuplicateCheck reports editions already on the ledger and the
	// items already minted into them.
	OnCompleteDuplicateCheck(skippedEditions int, skippedNFTs uint64)

	OnStartEditionCreation(count int)
	OnCompleteEditionCreation(count int)

	// OnStartMinting fires once the batches are planned.
	OnStartMinting(total, batchCount, batchSize int)

	// OnCompleteBatch fires after a batch's receipts are written.
	OnCompleteBatch(size int)

	// OnComplete reports editions created and items minted by this run.
	OnComplete(editionCount, nftCount int)
}

// NopHooks ignores every event.
type NopHooks struct{}

func (NopHooks) OnStartDuplicateCheck() {}
func (NopHooks) OnCompleteDuplicateCheck(int, uint64) {}
func (NopHooks) OnStartEditionCreation(int) {}
func (NopHooks) OnCompleteEditionCreation(int) {}
func (NopHooks) OnStartMinting(int, int, int) {}
func (NopHooks) OnCompleteBatch(int) {}
func (NopHooks) OnComplete(int, int) {}
