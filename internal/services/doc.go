// Package services wires the pipeline stages into the operations exposed by
// the command line.
//
// ReconciliationService reads its settings from config.Config:
//
//	svc, err := services.NewReconciliationServiceWithTelemetry(cfg, logger, providers)
//	results := svc.Combine(ctx)          // merge export shards
//	report, err := svc.Reconcile(ctx)    // funding, spot and combined summaries
//	run, err := svc.Run(ctx)             // both, in order
//
// Every call gets a run ID in its context; log lines and the report carry it.
package services
