package sqlassets

import _ "embed"

//go:embed schema/platform/shops.sql
var ShopsSQL string

//go:embed schema/platform/cached_artifacts.sql
var CachedArtifactsSQL string

//go:embed schema/platform/shop_sessions.sql
var ShopSessionsSQL string
