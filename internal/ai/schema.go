package ai

// eventsSchemaDescription describes the ClickHouse schema used for NL→SQL prompting.
// Kept in sync with the table definition in init.sql at the repo root.
const eventsSchemaDescription = `
Database: pool
Table: pool_events

Columns:
  - id         String        -- Unique event id
  - timestamp  DateTime      -- Settlement time of the operation (UTC)
  - kind       String        -- Operation kind: "swap", "deposit" or "withdraw"
  - pair       String        -- Trading pair, e.g. "WETH/USDC"
  - account    String        -- Hex address of the account that performed the operation
  - token_in   String        -- Symbol of the token sent into the pool
  - token_out  String        -- Symbol of the token paid out by the pool
  - amount_in  String        -- Exact integer amount of token_in in native precision
  - amount_out String        -- Exact integer amount of token_out in native precision
  - lp_delta   String        -- Liquidity tokens minted (positive) or burned (negative)
  - price      String        -- Execution price scaled by 1e18 (swaps only, empty otherwise)
  - k          String        -- Pool invariant after the operation, scaled by 1e36

Notes:
  - Amount columns are exact integer strings; cast with toFloat64(amount_in) or
    toDecimal256(amount_in, 0) before aggregating.
  - Token amounts carry 18 decimals: divide toFloat64(amount_in) by 1e18 for whole units.
  - Time filters should use timestamp, e.g. timestamp >= now() - INTERVAL 24 HOUR.
  - Filter by kind to separate swaps from liquidity operations.
`
