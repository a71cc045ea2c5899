package azapi

import (
	"fmt"
)

// ChunkExportImportDevices splits a bulk operation into service-sized batches.
// Chunks reuse the backing array of ops.
func ChunkExportImportDevices(ops []ExportImportDevice, size int) [][]ExportImportDevice {
	if size <= 0 || len(ops) == 0 {
		return nil
	}

	chunks := make([][]ExportImportDevice, 0, (len(ops)+size-1)/size)

	for start := 0; start < len(ops); start += size {
		end := min(start+size, len(ops))
		chunks = append(chunks, ops[start:end])
	}

	return chunks
}

// MergeBulkResults folds per-chunk bulk results into a single result. The
// merged result is successful only if every chunk succeeded.
func MergeBulkResults(results []BulkRegistryOperationResult) *BulkRegistryOperationResult {
	merged := &BulkRegistryOperationResult{IsSuccessful: true}

	for _, result := range results {
		if !result.IsSuccessful {
			merged.IsSuccessful = false
		}

		merged.Errors = append(merged.Errors, result.Errors...)
		merged.Warnings = append(merged.Warnings, result.Warnings...)
	}

	return merged
}

// DevicesToExportImport converts registry devices to bulk-operation entries
// under the given import mode. Modes guarded by an ETag precondition require
// every device to carry one.
func DevicesToExportImport(devices []Device, mode ImportMode) ([]ExportImportDevice, error) {
	if len(devices) == 0 {
		return nil, ErrEmptyBulkOperation
	}

	requireETag := mode == ImportModeUpdateIfMatchETag || mode == ImportModeDeleteIfMatchETag

	ops := make([]ExportImportDevice, 0, len(devices))

	for _, device := range devices {
		if device.DeviceID == "" {
			return nil, ErrDeviceIDMissing
		}

		if requireETag && device.ETag == "" {
			return nil, fmt.Errorf("device %q: %w", device.DeviceID, ErrETagRequired)
		}

		op := ExportImportDevice{
			DeviceID:       device.DeviceID,
			ImportMode:     mode,
			Status:         device.Status,
			StatusReason:   device.StatusReason,
			Authentication: device.Authentication,
			Capabilities:   device.Capabilities,
			DeviceScope:    device.DeviceScope,
		}

		if requireETag {
			op.ETag = device.ETag
		}

		ops = append(ops, op)
	}

	return ops, nil
}
