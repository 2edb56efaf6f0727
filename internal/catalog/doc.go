// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package catalog implements the Catalog Writer (C4), the only path
// through which Artist/Album/Track/YouTubeLink/Alias rows are created
// or mutated. It sits directly on top of internal/entitystore, adding:
//
//   - alias refresh via internal/normalize.GenerateAliases after every
//     artist/album/track write;
//   - the YouTube-link status normalization named in the Catalog
//     Writer contract (error/video_not_found with no video id collapses
//     to missing; error_message clears once a video id is known);
//   - protected-deletion enforcement against a caller-supplied
//     FavoriteChecker, since the Entity Store has no Favorite table of
//     its own to check against.
//
// Background loops (C8) and orchestrator reads (C9) never write to the
// entity store directly; every write goes through a Writer.
package catalog
