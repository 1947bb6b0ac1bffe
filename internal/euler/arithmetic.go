package euler

import (
	"math/big"
	"strconv"
)

func sumMultiples3or5() string {
	const limit = 1000
	sumDivisible := func(k int) int {
		n := (limit - 1) / k
		return k * n * (n + 1) / 2
	}
	return strconv.Itoa(sumDivisible(3) + sumDivisible(5) - sumDivisible(15))
}

func evenFibonacci() string {
	const limit = 4_000_000
	// Every third Fibonacci number is even: E(n) = 4E(n-1) + E(n-2).
	sum, prev, cur := 0, 0, 2
	for cur <= limit {
		sum += cur
		prev, cur = cur, 4*cur+prev
	}
	return strconv.Itoa(sum)
}

func isPalindrome(s string) bool {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		if s[i] != s[j] {
			return false
		}
	}
	return true
}

func largestPalindromeProduct() string {
	best := 0
	for a := 999; a >= 100; a-- {
		if a*999 <= best {
			break
		}
		for b := 999; b >= a; b-- {
			p := a * b
			if p <= best {
				break
			}
			if isPalindrome(strconv.Itoa(p)) {
				best = p
			}
		}
	}
	return strconv.Itoa(best)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func smallestMultiple() string {
	lcm := 1
	for k := 2; k <= 20; k++ {
		lcm = lcm / gcd(lcm, k) * k
	}
	return strconv.Itoa(lcm)
}

func sumSquareDifference() string {
	const n = 100
	sum := n * (n + 1) / 2
	sumSquares := n * (n + 1) * (2*n + 1) / 6
	return strconv.Itoa(sum*sum - sumSquares)
}

func specialPythagoreanTriplet() string {
	const perimeter = 1000
	for a := 1; a < perimeter/3; a++ {
		for b := a + 1; b < perimeter/2; b++ {
			c := perimeter - a - b
			if a*a+b*b == c*c {
				return strconv.Itoa(a * b * c)
			}
		}
	}
	return "0"
}

func longestCollatz() string {
	const limit = 1_000_000
	cache := make([]uint32, limit)
	cache[1] = 1
	bestStart, bestLen := 1, uint32(1)
	for start := 2; start < limit; start++ {
		n := uint64(start)
		steps := uint32(0)
		for n >= uint64(start) || cache[n] == 0 {
			if n%2 == 0 {
				n /= 2
			} else {
				n = 3*n + 1
			}
			steps++
		}
		length := steps + cache[n]
		cache[start] = length
		if length > bestLen {
			bestStart, bestLen = start, length
		}
	}
	return strconv.Itoa(bestStart)
}

func latticePaths() string {
	return new(big.Int).Binomial(40, 20).String()
}

func spiralDiagonals() string {
	const size = 1001
	sum := 1
	for side := 3; side <= size; side += 2 {
		// Corners of ring with side s sum to 4s^2 - 6(s-1).
		sum += 4*side*side - 6*(side-1)
	}
	return strconv.Itoa(sum)
}

func coinSums() string {
	const target = 200
	coins := []int{1, 2, 5, 10, 20, 50, 100, 200}
	ways := make([]int, target+1)
	ways[0] = 1
	for _, c := range coins {
		for v := c; v <= target; v++ {
			ways[v] += ways[v-c]
		}
	}
	return strconv.Itoa(ways[target])
}
