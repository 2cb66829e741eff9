// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

// NSON field keys. The short strings are frozen by the server contract
// and must not be changed.
const (
	FieldAbortOnFail          = "a"
	FieldBindVariables        = "bv"
	FieldCompartment          = "cc"
	FieldConsistency          = "co"
	FieldConsumed             = "c"
	FieldContinuationKey      = "ck"
	FieldData                 = "d"
	FieldDurability           = "du"
	FieldEnd                  = "en"
	FieldErrorCode            = "e"
	FieldExactMatch           = "ec"
	FieldException            = "x"
	FieldExistingModTime      = "em"
	FieldExistingValue        = "el"
	FieldExistingVersion      = "ev"
	FieldExpiration           = "xp"
	FieldFields               = "f"
	FieldGenerated            = "gn"
	FieldGetQueryPlan         = "gq"
	FieldGetQuerySchema       = "gs"
	FieldHeader               = "h"
	FieldIdentityCacheSize    = "ic"
	FieldInclusive            = "in"
	FieldIndex                = "i"
	FieldIndexes              = "ix"
	FieldIsPrepared           = "is"
	FieldIsSimpleQuery        = "iq"
	FieldKey                  = "k"
	FieldLastIndex            = "li"
	FieldLimits               = "lm"
	FieldLimitsMode           = "mo"
	FieldListMaxToRead        = "lx"
	FieldListStartIndex       = "ls"
	FieldMatchVersion         = "mv"
	FieldMaxReadKB            = "mr"
	FieldMaxWriteKB           = "mw"
	FieldModified             = "md"
	FieldName                 = "m"
	FieldNamespace            = "ns"
	FieldNumDeletions         = "nd"
	FieldNumOperations        = "no"
	FieldNumResults           = "nr"
	FieldOpCode               = "o"
	FieldOperationID          = "od"
	FieldOperations           = "os"
	FieldPath                 = "pt"
	FieldPayload              = "p"
	FieldPrepare              = "pp"
	FieldPreparedQuery        = "pq"
	FieldPreparedStatement    = "ps"
	FieldProxyTopoSeqNum      = "pn"
	FieldQuery                = "q"
	FieldQueryPlanString      = "qs"
	FieldQueryResults         = "qr"
	FieldQueryResultSchema    = "qc"
	FieldQueryVersion         = "qv"
	FieldRange                = "rg"
	FieldRangePath            = "rp"
	FieldReachedLimit         = "re"
	FieldReadKB               = "rk"
	FieldReadThrottleCount    = "rt"
	FieldReadUnits            = "ru"
	FieldReturnInfo           = "ri"
	FieldReturnRow            = "rr"
	FieldRow                  = "r"
	FieldRowVersion           = "rv"
	FieldShardID              = "si"
	FieldShardIDs             = "sa"
	FieldStart                = "sr"
	FieldStatement            = "st"
	FieldStorageGB            = "sg"
	FieldStorageThrottleCount = "sl"
	FieldSuccess              = "ss"
	FieldSysopResult          = "rs"
	FieldSysopState           = "ta"
	FieldTableDDL             = "td"
	FieldTableName            = "n"
	FieldTables               = "tb"
	FieldTableSchema          = "ac"
	FieldTableState           = "as"
	FieldTableUsage           = "u"
	FieldTableUsagePeriod     = "pd"
	FieldTimeout              = "t"
	FieldTopologyInfo         = "tp"
	FieldTopoSeqNum           = "ts"
	FieldTTL                  = "tt"
	FieldUpdateTTL            = "ut"
	FieldValue                = "l"
	FieldVersion              = "v"
	FieldWMFailure            = "wf"
	FieldWMFailIndex          = "wi"
	FieldWMFailResult         = "wr"
	FieldWMSuccess            = "ws"
	FieldWriteKB              = "wk"
	FieldWriteThrottleCount   = "wt"
	FieldWriteUnits           = "wu"
)
