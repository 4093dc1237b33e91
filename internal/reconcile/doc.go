// Package reconcile computes financial summaries from combined datasets.
//
// FundingReconciler totals deposits and withdrawals from a funding account
// history. SpotReconciler pivots filled spot orders into buy and sell volume
// and fees per symbol, with
//
//	NetVolume = (SellVolume + BuyFee + SellFee) - BuyVolume
//
// Combine adds the funding net movement to the summed spot net volume; a
// result far from zero points at movements the two exports do not explain.
//
// All arithmetic uses exact decimals.
package reconcile
