// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages contract storage slots.
// It follows the flow as bellow:
//
//	    [ state ] -> [ written slots ] -> [ staging ] -> [ kv batch ]
//	        |
//	[ read-only kv ]
//
// A State is created per call and thrown away on failure. Nothing reaches the
// underlying store until the staged changes are committed in one batch.
package state
